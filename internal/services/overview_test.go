package services

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"vesta/internal/core"
	"vesta/internal/household"
	"vesta/internal/storage/memory"
)

type fakeReader struct {
	user       *core.User
	txs        []core.Transaction
	bills      []core.Bill
	goals      []core.SavingsGoal
	wishes     []core.WishlistItem
	challenges []core.SavingsChallenge
}

func (f fakeReader) CurrentUser() (core.User, bool) {
	if f.user == nil {
		return core.User{}, false
	}
	return *f.user, true
}
func (f fakeReader) Transactions() []core.Transaction    { return f.txs }
func (f fakeReader) Bills() []core.Bill                  { return f.bills }
func (f fakeReader) Goals() []core.SavingsGoal           { return f.goals }
func (f fakeReader) Wishlist() []core.WishlistItem       { return f.wishes }
func (f fakeReader) Challenges() []core.SavingsChallenge { return f.challenges }

func cents(c int64) core.Money { return core.Money{Cents: c} }

func TestBuildOverviewRequiresSession(t *testing.T) {
	_, err := BuildOverview(fakeReader{}, time.Now())
	if !errors.Is(err, household.ErrNoActiveSession) {
		t.Fatalf("error = %v, want ErrNoActiveSession", err)
	}
}

func TestBuildOverview(t *testing.T) {
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	r := fakeReader{
		user: &core.User{ID: "u-1", Name: "Alice", FamilyID: "fam-1"},
		txs: []core.Transaction{
			{Amount: cents(1000), Category: "food"},
			{Amount: cents(3000), Category: "rent"},
			{Amount: cents(2500), Category: "food"},
			{Amount: cents(3500), Category: "fun"},
		},
		bills: []core.Bill{
			{ID: "b1", Amount: cents(5000), DueDate: core.NewDate(2026, 10, 1)},
			{ID: "b2", Amount: cents(7000), DueDate: core.NewDate(2026, 10, 20), IsPaid: true},
			{ID: "b3", Amount: cents(100), DueDate: core.NewDate(2026, 12, 1)},
		},
		goals: []core.SavingsGoal{
			{ID: "g1", Name: "car", TargetAmount: cents(10000), CurrentAmount: cents(2550)},
			{ID: "g2", Name: "bike", TargetAmount: cents(1000), CurrentAmount: cents(1500)},
		},
		wishes: []core.WishlistItem{
			{ID: "w1", Votes: 2},
			{ID: "w2", Votes: 3},
			{ID: "w3", Votes: 3},
		},
		challenges: []core.SavingsChallenge{
			{ID: "c1", Name: "coffee", Target: cents(400), Current: cents(100)},
		},
	}

	ov, err := BuildOverview(r, now)
	if err != nil {
		t.Fatalf("BuildOverview() error = %v", err)
	}
	if ov.FamilyID != "fam-1" {
		t.Errorf("FamilyID = %q", ov.FamilyID)
	}
	if ov.TotalSpent.Cents != 10000 {
		t.Errorf("TotalSpent = %v, want 100", ov.TotalSpent)
	}
	// food and fun tie on amount; name order breaks the tie.
	wantCats := []core.CategoryAmount{
		{Name: "food", Amount: cents(3500)},
		{Name: "fun", Amount: cents(3500)},
		{Name: "rent", Amount: cents(3000)},
	}
	if !reflect.DeepEqual(ov.ByCategory, wantCats) {
		t.Errorf("ByCategory = %+v, want %+v", ov.ByCategory, wantCats)
	}
	if ov.UnpaidTotal.Cents != 5100 {
		t.Errorf("UnpaidTotal = %v, want 51", ov.UnpaidTotal)
	}
	statuses := []core.BillStatus{}
	for _, b := range ov.Bills {
		statuses = append(statuses, b.Status)
	}
	wantStatuses := []core.BillStatus{core.BillOverdue, core.BillPaid, core.BillUpcoming}
	if !reflect.DeepEqual(statuses, wantStatuses) {
		t.Errorf("bill statuses = %v, want %v", statuses, wantStatuses)
	}
	if ov.Goals[0].Percent != 25 || ov.Goals[1].Percent != 100 {
		t.Errorf("goal percents = %d, %d", ov.Goals[0].Percent, ov.Goals[1].Percent)
	}
	if ov.Challenges[0].Percent != 25 {
		t.Errorf("challenge percent = %d, want 25", ov.Challenges[0].Percent)
	}
	if ov.TopWish == nil || ov.TopWish.ID != "w2" {
		t.Errorf("TopWish = %+v, want w2", ov.TopWish)
	}
}

func TestBuildOverviewEmptyHousehold(t *testing.T) {
	r := fakeReader{user: &core.User{ID: "u-1", Name: "Alice", FamilyID: "fam-1"}}
	ov, err := BuildOverview(r, time.Now())
	if err != nil {
		t.Fatalf("BuildOverview() error = %v", err)
	}
	if ov.TopWish != nil || len(ov.ByCategory) != 0 || ov.Bills == nil || ov.Goals == nil {
		t.Errorf("unexpected empty overview: %+v", ov)
	}
}

func TestBuildOverviewFromStore(t *testing.T) {
	ctx := context.Background()
	s := household.Open(ctx, memory.New())
	if err := s.Login(ctx, core.User{ID: "u-1", Name: "Alice", FamilyID: "fam-1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTransaction(ctx, core.TransactionDraft{Amount: cents(4200), Category: "food"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Login(ctx, core.User{ID: "u-2", Name: "Bob", FamilyID: "fam-2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTransaction(ctx, core.TransactionDraft{Amount: cents(100), Category: "food"}); err != nil {
		t.Fatal(err)
	}

	ov, err := BuildOverview(s, time.Now())
	if err != nil {
		t.Fatalf("BuildOverview() error = %v", err)
	}
	if ov.FamilyID != "fam-2" || ov.TotalSpent.Cents != 100 {
		t.Errorf("overview leaked other households: %+v", ov)
	}
}

func TestProgressHandlesLargeAmounts(t *testing.T) {
	tests := []struct {
		name            string
		current, target int64
		want            int
	}{
		{"quarter", 2500, 10000, 25},
		{"over target", 20000, 10000, 100},
		{"huge unclamped deposit", math.MaxInt64, 50000, 100},
		{"huge both", math.MaxInt64 / 2, math.MaxInt64, 50},
		{"negative current", -100, 10000, 0},
		{"zero target", 500, 0, 0},
		{"tiny target", 1, 3, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := progress("g-1", "bike", core.Money{Cents: tt.current}, core.Money{Cents: tt.target})
			if p.Percent != tt.want {
				t.Errorf("Percent = %d, want %d", p.Percent, tt.want)
			}
		})
	}
}
