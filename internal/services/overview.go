package services

import (
	"cmp"
	"math"
	"slices"
	"time"

	"vesta/internal/core"
	"vesta/internal/household"
)

// HouseholdReader is the read side of household.Store.
type HouseholdReader interface {
	CurrentUser() (core.User, bool)
	Transactions() []core.Transaction
	Bills() []core.Bill
	Goals() []core.SavingsGoal
	Wishlist() []core.WishlistItem
	Challenges() []core.SavingsChallenge
}

var _ HouseholdReader = (*household.Store)(nil)

// BuildOverview aggregates the signed-in household's records into a
// dashboard view. Bills keep their stored order.
func BuildOverview(r HouseholdReader, now time.Time) (core.HouseholdOverview, error) {
	u, ok := r.CurrentUser()
	if !ok {
		return core.HouseholdOverview{}, household.ErrNoActiveSession
	}

	ov := core.HouseholdOverview{
		FamilyID:   u.FamilyID,
		ByCategory: []core.CategoryAmount{},
		Bills:      []core.BillSummary{},
		Goals:      []core.Progress{},
		Challenges: []core.Progress{},
	}

	ov.TotalSpent, ov.ByCategory = spendingByCategory(r.Transactions())

	for _, b := range r.Bills() {
		status := ClassifyBill(b, now)
		if status != core.BillPaid {
			ov.UnpaidTotal = ov.UnpaidTotal.Add(b.Amount)
		}
		ov.Bills = append(ov.Bills, core.BillSummary{Bill: b, Status: status})
	}

	for _, g := range r.Goals() {
		ov.Goals = append(ov.Goals, progress(g.ID, g.Name, g.CurrentAmount, g.TargetAmount))
	}
	for _, c := range r.Challenges() {
		ov.Challenges = append(ov.Challenges, progress(c.ID, c.Name, c.Current, c.Target))
	}

	ov.TopWish = topWish(r.Wishlist())
	return ov, nil
}

// spendingByCategory sums transactions per category, largest first; ties
// keep category name order.
func spendingByCategory(txs []core.Transaction) (core.Money, []core.CategoryAmount) {
	var total core.Money
	idx := map[string]int{}
	out := []core.CategoryAmount{}
	for _, tx := range txs {
		total = total.Add(tx.Amount)
		i, ok := idx[tx.Category]
		if !ok {
			i = len(out)
			idx[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return total, out
}

// progress reports current/target as a whole percentage capped at 100.
func progress(id, name string, current, target core.Money) core.Progress {
	p := core.Progress{ID: id, Name: name, Current: current, Target: target}
	switch {
	case target.Cents <= 0 || current.Cents <= 0:
	case current.Cents >= target.Cents:
		p.Percent = 100
	case current.Cents <= math.MaxInt64/100:
		p.Percent = int(current.Cents * 100 / target.Cents)
	default:
		// target > current here, so target/100 is far from zero.
		p.Percent = min(int(current.Cents/(target.Cents/100)), 100)
	}
	return p
}

// topWish returns the most voted item; the earliest suggestion wins ties.
func topWish(items []core.WishlistItem) *core.WishlistItem {
	var top *core.WishlistItem
	for i := range items {
		if top == nil || items[i].Votes > top.Votes {
			top = &items[i]
		}
	}
	return top
}
