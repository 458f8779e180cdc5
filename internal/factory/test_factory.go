package factory

import (
	"time"

	"github.com/mcoot/mindgym/internal/dependencies/mocks"
	"github.com/mcoot/mindgym/internal/services/session"
	"github.com/mcoot/mindgym/internal/storage"
	"github.com/mcoot/mindgym/internal/storage/memory"
	"github.com/mcoot/mindgym/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App on memory storage with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New())
}

// NewTestAppWithStorage creates an App on the given storage with mocked dependencies
func NewTestAppWithStorage(store storage.Storage) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, session.DefaultConfig(), time.UTC, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// Restart builds a fresh App over the same storage and mocks, as after a
// process restart
func (t *TestApp) Restart() *TestApp {
	app := newWithDependencies(t.Storage, t.MockClock, t.MockRandom, session.DefaultConfig(), time.UTC, testutil.NopLogger())
	return &TestApp{
		App:        app,
		MockClock:  t.MockClock,
		MockRandom: t.MockRandom,
	}
}
