package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/looplab/fsm"
)

// ErrAlreadySettled is returned when settling something that is already settled
var ErrAlreadySettled = errors.New("already settled")

const eventSettle = "settle"

// Settleable is anything with a one-way open/pending → settled status
type Settleable interface {
	CurrentStatus() string
	SetStatus(status string)
}

// SettlementFSM guards the settlement transition of bills, incomes and
// recurring instances. There is no way back from settled.
type SettlementFSM struct {
	target Settleable
	fsm    *fsm.FSM
}

// NewSettlementFSM creates a state machine positioned at the target's status
func NewSettlementFSM(target Settleable) *SettlementFSM {
	s := &SettlementFSM{target: target}

	s.fsm = fsm.NewFSM(
		target.CurrentStatus(),
		fsm.Events{
			// open bill/income or pending instance → settled
			{Name: eventSettle, Src: []string{models.ObligationStatusOpen, models.InstanceStatusPending}, Dst: models.ObligationStatusSettled},
		},
		fsm.Callbacks{},
	)

	return s
}

// Settle moves the target to settled
func (s *SettlementFSM) Settle(ctx context.Context) error {
	if s.fsm.Current() == models.ObligationStatusSettled {
		return ErrAlreadySettled
	}

	if err := s.fsm.Event(ctx, eventSettle); err != nil {
		return fmt.Errorf("cannot settle from state %s: %w", s.fsm.Current(), err)
	}

	s.target.SetStatus(s.fsm.Current())
	return nil
}

// Current returns the current state
func (s *SettlementFSM) Current() string {
	return s.fsm.Current()
}

// CanSettle reports whether the settle transition is allowed
func (s *SettlementFSM) CanSettle() bool {
	return s.fsm.Can(eventSettle)
}
