package factory

import (
	"time"

	"github.com/mcoot/pongduel-go/internal/dependencies/mocks"
	"github.com/mcoot/pongduel-go/internal/dependencies/random"
	"github.com/mcoot/pongduel-go/internal/realtime"
	"github.com/mcoot/pongduel-go/internal/services/auth"
	"github.com/mcoot/pongduel-go/internal/services/invite"
	"github.com/mcoot/pongduel-go/internal/storage/memory"
	"github.com/mcoot/pongduel-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing with a controllable
// clock. Randomness stays real so generated ids never collide.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(
		store,
		mockClock,
		random.New(),
		auth.DefaultConfig(),
		invite.DefaultConfig(),
		realtime.DefaultConfig(),
		testutil.NopLogger(),
	)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
