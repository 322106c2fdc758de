package payment

import (
	"sync"

	"github.com/google/uuid"
)

// MockGateway is an in-process stand-in for the real SDK. It approves
// every payment unless outcomes have been scripted with Enqueue, in
// which case it replays them in order.
type MockGateway struct {
	scripted []Outcome
	mu       sync.Mutex
}

// NewMockGateway creates a new MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Enqueue scripts the outcome for a future Open call.
func (g *MockGateway) Enqueue(outcome Outcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripted = append(g.scripted, outcome)
}

// Open returns the next scripted outcome, or an approval with a fresh
// reference when nothing is scripted.
func (g *MockGateway) Open(opts Options) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.scripted) > 0 {
		outcome := g.scripted[0]
		g.scripted = g.scripted[1:]
		return outcome, nil
	}
	return Outcome{
		Status:    OutcomeApproved,
		Reference: "pay-" + uuid.New().String(),
	}, nil
}
