// Package services derives read-side views from the household store.
//
// This file implements the strategy pattern for bill dueness: each status
// has a rule that decides whether a bill falls into it, evaluated in order.
package services

import (
	"time"

	"vesta/internal/core"
)

// DueSoonWindow is how far ahead an unpaid bill counts as due soon.
const DueSoonWindow = 7 * 24 * time.Hour

// DuenessRule is the strategy interface for one bill status.
type DuenessRule interface {
	Status() core.BillStatus
	// Matches reports whether bill has this status on the given day.
	Matches(bill core.Bill, today core.Date) bool
}

type PaidRule struct{}

func (PaidRule) Status() core.BillStatus { return core.BillPaid }

func (PaidRule) Matches(b core.Bill, _ core.Date) bool { return b.IsPaid }

type OverdueRule struct{}

func (OverdueRule) Status() core.BillStatus { return core.BillOverdue }

// Matches is true when the due date is before today.
func (OverdueRule) Matches(b core.Bill, today core.Date) bool {
	return !b.DueDate.IsZero() && b.DueDate.Before(today.Time)
}

type DueTodayRule struct{}

func (DueTodayRule) Status() core.BillStatus { return core.BillDueToday }

func (DueTodayRule) Matches(b core.Bill, today core.Date) bool {
	return !b.DueDate.IsZero() && b.DueDate.Equal(today.Time)
}

// DueSoonRule matches bills due within Window after today.
type DueSoonRule struct {
	Window time.Duration
}

func (DueSoonRule) Status() core.BillStatus { return core.BillDueSoon }

func (r DueSoonRule) Matches(b core.Bill, today core.Date) bool {
	if b.DueDate.IsZero() {
		return false
	}
	return !b.DueDate.After(today.Add(r.Window))
}

// defaultRules is evaluated top to bottom; the first match wins and
// unmatched bills are upcoming.
var defaultRules = []DuenessRule{
	PaidRule{},
	OverdueRule{},
	DueTodayRule{},
	DueSoonRule{Window: DueSoonWindow},
}

// ClassifyBill returns the status of bill relative to now's calendar day.
// Bills without a due date are upcoming until paid.
func ClassifyBill(bill core.Bill, now time.Time) core.BillStatus {
	return ClassifyBillWith(defaultRules, bill, now)
}

// ClassifyBillWith applies a custom ordered rule set.
func ClassifyBillWith(rules []DuenessRule, bill core.Bill, now time.Time) core.BillStatus {
	today := core.DateOf(now)
	for _, r := range rules {
		if r.Matches(bill, today) {
			return r.Status()
		}
	}
	return core.BillUpcoming
}
