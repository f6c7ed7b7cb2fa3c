package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// BillStatus classifies a bill against the current day.
type BillStatus string

const (
	BillPaid     BillStatus = "paid"
	BillOverdue  BillStatus = "overdue"
	BillDueToday BillStatus = "due_today"
	BillDueSoon  BillStatus = "due_soon"
	BillUpcoming BillStatus = "upcoming"
)

type BillSummary struct {
	Bill   Bill
	Status BillStatus
}

// Progress reports how far a goal or challenge is toward its target, in percent.
type Progress struct {
	ID      string
	Name    string
	Current Money
	Target  Money
	Percent int
}

// HouseholdOverview is the dashboard view of one household.
type HouseholdOverview struct {
	FamilyID    string
	TotalSpent  Money
	ByCategory  []CategoryAmount
	UnpaidTotal Money
	Bills       []BillSummary
	Goals       []Progress
	Challenges  []Progress
	TopWish     *WishlistItem
}
