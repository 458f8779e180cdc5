package request

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/services/progression"
)

// LoginRequest is the request body for starting a session
type LoginRequest struct {
	Name string `json:"name"`
}

// SubmitResultRequest is the request body for reporting a completed round
type SubmitResultRequest struct {
	Game     string     `json:"game"`
	Score    int        `json:"score"`
	Accuracy float64    `json:"accuracy"`
	Speed    float64    `json:"speed"`
	Date     *time.Time `json:"date,omitempty"`
}

// Validate checks the request and returns an error wrapping
// model.ErrInvalidResult when a field is out of range
func (r SubmitResultRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Game) == "":
		return fmt.Errorf("%w: game is required", model.ErrInvalidResult)
	case r.Score < 0:
		return fmt.Errorf("%w: score must not be negative", model.ErrInvalidResult)
	case r.Score > progression.MaxScore:
		return fmt.Errorf("%w: score must not exceed %d", model.ErrInvalidResult, progression.MaxScore)
	case math.IsNaN(r.Accuracy) || r.Accuracy < 0 || r.Accuracy > 100:
		return fmt.Errorf("%w: accuracy must be between 0 and 100", model.ErrInvalidResult)
	case math.IsNaN(r.Speed) || math.IsInf(r.Speed, 0) || r.Speed < 0:
		return fmt.Errorf("%w: speed must not be negative", model.ErrInvalidResult)
	}
	return nil
}

// ToModel converts the request to a GameResult. A missing date stays zero.
func (r SubmitResultRequest) ToModel() model.GameResult {
	result := model.GameResult{
		Game:     r.Game,
		Score:    r.Score,
		Accuracy: r.Accuracy,
		Speed:    r.Speed,
	}
	if r.Date != nil {
		result.Date = *r.Date
	}
	return result
}
