package services

import (
	"testing"
	"time"

	"vesta/internal/core"
)

func TestClassifyBill(t *testing.T) {
	now := time.Date(2026, 10, 16, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		bill core.Bill
		want core.BillStatus
	}{
		{
			name: "paid wins over overdue",
			bill: core.Bill{IsPaid: true, DueDate: core.NewDate(2026, 9, 1)},
			want: core.BillPaid,
		},
		{
			name: "due yesterday - overdue",
			bill: core.Bill{DueDate: core.NewDate(2026, 10, 15)},
			want: core.BillOverdue,
		},
		{
			name: "due today - due today",
			bill: core.Bill{DueDate: core.NewDate(2026, 10, 16)},
			want: core.BillDueToday,
		},
		{
			name: "due tomorrow - due soon",
			bill: core.Bill{DueDate: core.NewDate(2026, 10, 17)},
			want: core.BillDueSoon,
		},
		{
			name: "due in exactly 7 days - due soon",
			bill: core.Bill{DueDate: core.NewDate(2026, 10, 23)},
			want: core.BillDueSoon,
		},
		{
			name: "due in 8 days - upcoming",
			bill: core.Bill{DueDate: core.NewDate(2026, 10, 24)},
			want: core.BillUpcoming,
		},
		{
			name: "no due date - upcoming",
			bill: core.Bill{},
			want: core.BillUpcoming,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBill(tt.bill, now); got != tt.want {
				t.Errorf("ClassifyBill() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyBillUsesCalendarDayInUTC(t *testing.T) {
	// 23:30 at UTC-5 is already the next day in UTC.
	now := time.Date(2026, 10, 15, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	bill := core.Bill{DueDate: core.NewDate(2026, 10, 16)}
	if got := ClassifyBill(bill, now); got != core.BillDueToday {
		t.Errorf("ClassifyBill() = %v, want %v", got, core.BillDueToday)
	}
}

func TestClassifyBillWithCustomRules(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	rules := []DuenessRule{PaidRule{}, DueSoonRule{Window: 30 * 24 * time.Hour}}

	bill := core.Bill{DueDate: core.NewDate(2026, 11, 10)}
	if got := ClassifyBillWith(rules, bill, now); got != core.BillDueSoon {
		t.Errorf("ClassifyBillWith() = %v, want %v", got, core.BillDueSoon)
	}
	if got := ClassifyBillWith(nil, bill, now); got != core.BillUpcoming {
		t.Errorf("ClassifyBillWith(nil) = %v, want %v", got, core.BillUpcoming)
	}
}
