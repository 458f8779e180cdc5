package cli

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the session's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Get(cmd.Context(), "/api/v1/profile", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayCmd() *cobra.Command {
	var (
		game     string
		score    int
		accuracy float64
		speed    float64
		date     string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Report a completed minigame round",
		Long: `Report a completed minigame round and show the XP, level and badges it earned.

Known games: Memory Matrix, Logic Loop, Reaction Rush, Tap Frenzy,
Precision Click, Focus Flow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(game) == "" {
				return fmt.Errorf("--game is required")
			}

			req := map[string]any{
				"game":     game,
				"score":    score,
				"accuracy": accuracy,
				"speed":    speed,
			}
			if date != "" {
				t, err := time.Parse(time.RFC3339, date)
				if err != nil {
					return fmt.Errorf("--date must be RFC3339: %w", err)
				}
				req["date"] = t
			}

			var result Outcome
			if err := client.Post(cmd.Context(), "/api/v1/results", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Game name (required)")
	cmd.Flags().IntVar(&score, "score", 0, "Score")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "Accuracy percentage, 0-100")
	cmd.Flags().Float64Var(&speed, "speed", 0, "Completion time in seconds")
	cmd.Flags().StringVar(&date, "date", "", "Completion time (RFC3339); defaults to now")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Leaderboard

			if err := client.Get(cmd.Context(), "/api/v1/leaderboard", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRankCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show the leaderboard rank of a name, or your own",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/leaderboard/rank"
			if name != "" {
				path += "?name=" + url.QueryEscape(name)
			}

			var result RankResult
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name to look up")

	return cmd
}

func newBadgesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "Show the badge catalog and what is unlocked",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Badges

			if err := client.Get(cmd.Context(), "/api/v1/badges", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show progress statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Stats

			if err := client.Get(cmd.Context(), "/api/v1/stats", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newNotificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Show and clear pending level-up and badge notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Notifications

			if err := client.Post(cmd.Context(), "/api/v1/notifications/drain", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
