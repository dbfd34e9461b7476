package roaming

import (
	"sync"

	"wwcp/status"
)

// SendState is the lifecycle of one in-flight partner call.
type SendState string

const (
	SendIdle      SendState = "Idle"
	SendSending   SendState = "Sending"
	SendCompleted SendState = "Completed"
	SendFailed    SendState = "Failed"
	SendTimedOut  SendState = "TimedOut"
)

// sender serializes pushes to one partner. A partner has at most one batch
// in flight; a second push while Sending is rejected with a Conflict fault
// instead of interleaving batches. A TimedOut call is never retried by the
// sender itself, the next batch simply starts a fresh call.
type sender struct {
	mu    sync.Mutex
	state SendState
}

func newSender() *sender {
	return &sender{state: SendIdle}
}

func (s *sender) State() SendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *sender) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SendSending {
		return status.Conflictf("a batch is already in flight")
	}
	s.state = SendSending
	return nil
}

// finish records the terminal state of the call and returns the sender to
// Idle, keeping the terminal state observable through the returned value.
func (s *sender) finish(err error) SendState {
	terminal := SendCompleted
	switch status.Classify(err) {
	case status.OutcomeTimeout:
		terminal = SendTimedOut
	case status.OutcomeError:
		terminal = SendFailed
	}
	s.mu.Lock()
	s.state = SendIdle
	s.mu.Unlock()
	return terminal
}
