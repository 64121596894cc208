package factory

import (
	"time"

	"github.com/mcoot/rankparty/internal/dependencies/mocks"
	"github.com/mcoot/rankparty/internal/storage/memory"
	"github.com/mcoot/rankparty/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Events     *mocks.RecordingNotifier
}

// TestTopics is the topic list test apps draw from
var TestTopics = []string{"Best Smells", "Worst Smells", "Fake Jobs"}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	events := mocks.NewRecordingNotifier()

	app := newWithDependencies(memory.New(), mockClock, mockRandom, TestTopics, events, withDefaults(Config{}), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Events:     events,
	}
}
