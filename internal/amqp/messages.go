package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"vesta/internal/core"
	"vesta/internal/household"
)

// CelebrationMessage carries one successful household mutation.
type CelebrationMessage struct {
	Kind        string     `json:"kind"`
	HouseholdID string     `json:"familyId"`
	RecordID    string     `json:"recordId,omitempty"`
	ActorID     string     `json:"userId"`
	ActorName   string     `json:"userName"`
	Amount      core.Money `json:"amount"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NewCelebrationMessage converts a store event to its wire form.
func NewCelebrationMessage(e household.Event) *CelebrationMessage {
	ts := e.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &CelebrationMessage{
		Kind:        string(e.Kind),
		HouseholdID: e.HouseholdID,
		RecordID:    e.RecordID,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		Amount:      e.Amount,
		Timestamp:   ts.UTC(),
	}
}

var celebrationVerbs = map[household.EventKind]string{
	household.EventTransactionAdded:      "logged a transaction",
	household.EventBillAdded:             "added a bill",
	household.EventBillToggled:           "updated a bill",
	household.EventGoalAdded:             "set a new vision",
	household.EventGoalDeposit:           "saved toward a vision",
	household.EventWishAdded:             "suggested a desire",
	household.EventWishVoted:             "voted for a desire",
	household.EventChallengeAdded:        "started a challenge",
	household.EventChallengeContribution: "contributed to a challenge",
	household.EventProfileUpdated:        "updated their profile",
}

// Describe renders a one-line announcement, e.g. "Alice saved toward a vision (50)".
func (m *CelebrationMessage) Describe() string {
	verb, ok := celebrationVerbs[household.EventKind(m.Kind)]
	if !ok {
		verb = "did something: " + m.Kind
	}
	who := m.ActorName
	if who == "" {
		who = "Someone"
	}
	if m.Amount.Cents == 0 {
		return fmt.Sprintf("%s %s", who, verb)
	}
	return fmt.Sprintf("%s %s (%s)", who, verb, m.Amount)
}

// ToJSON converts the message to JSON bytes
func (m *CelebrationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CelebrationMessageFromJSON decodes a message body.
func CelebrationMessageFromJSON(data []byte) (*CelebrationMessage, error) {
	var msg CelebrationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
