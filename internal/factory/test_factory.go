package factory

import (
	"time"

	"github.com/mcoot/snookercounter/internal/dependencies/mocks"
	"github.com/mcoot/snookercounter/internal/services/auth"
	"github.com/mcoot/snookercounter/internal/services/match"
	"github.com/mcoot/snookercounter/internal/storage/memory"
	"github.com/mcoot/snookercounter/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App backed by memory storage with mocked clock and
// randomness. Match numbers come from MockRandom, so tests creating more than
// one match must queue distinct values.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, auth.DefaultConfig(), match.Config{}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
