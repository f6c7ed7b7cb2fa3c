package household

import (
	"context"
	"time"

	"vesta/internal/core"
)

// EventKind names the mutation that produced a celebration.
type EventKind string

const (
	EventTransactionAdded      EventKind = "transaction_added"
	EventBillAdded             EventKind = "bill_added"
	EventBillToggled           EventKind = "bill_toggled"
	EventGoalAdded             EventKind = "goal_added"
	EventGoalDeposit           EventKind = "goal_deposit"
	EventWishAdded             EventKind = "wish_added"
	EventWishVoted             EventKind = "wish_voted"
	EventChallengeAdded        EventKind = "challenge_added"
	EventChallengeContribution EventKind = "challenge_contribution"
	EventProfileUpdated        EventKind = "profile_updated"
)

// Event describes a successful mutation.
type Event struct {
	Kind        EventKind
	HouseholdID string
	RecordID    string
	ActorID     string
	ActorName   string
	Amount      core.Money
	At          time.Time
}

// Celebrator receives an event after every successful mutation. The store
// does not depend on it succeeding; implementations handle their own errors.
type Celebrator interface {
	Celebrate(ctx context.Context, e Event)
}

// CelebratorFunc adapts a function to Celebrator.
type CelebratorFunc func(ctx context.Context, e Event)

func (f CelebratorFunc) Celebrate(ctx context.Context, e Event) { f(ctx, e) }

type nopCelebrator struct{}

func (nopCelebrator) Celebrate(context.Context, Event) {}
