package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleParent  Role = "parent"
	RolePartner Role = "partner"
	RoleChild   Role = "child"
	RoleMember  Role = "member"
)

const dateLayout = "2006-01-02"

type (
	Role string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is the acting identity; FamilyID scopes every record it can see.
	User struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		FamilyID string `json:"familyId"`
		Avatar   string `json:"avatar,omitempty"`
		Role     Role   `json:"role,omitempty"`
	}

	Transaction struct {
		ID       string    `json:"id"`
		FamilyID string    `json:"familyId"`
		UserID   string    `json:"userId"`
		UserName string    `json:"userName"`
		Amount   Money     `json:"amount"`
		Category string    `json:"category"`
		Date     time.Time `json:"date"`
		Note     string    `json:"note,omitempty"`
	}

	Bill struct {
		ID       string `json:"id"`
		FamilyID string `json:"familyId"`
		Name     string `json:"name"`
		Amount   Money  `json:"amount"`
		DueDate  Date   `json:"dueDate"`
		IsPaid   bool   `json:"isPaid"`
	}

	// SavingsGoal is a "vision": a long-term target with accumulating deposits.
	SavingsGoal struct {
		ID            string `json:"id"`
		FamilyID      string `json:"familyId"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
	}

	// WishlistItem is a "desire" the household votes on.
	WishlistItem struct {
		ID          string `json:"id"`
		FamilyID    string `json:"familyId"`
		Name        string `json:"name"`
		Price       Money  `json:"price"`
		Votes       int    `json:"votes"`
		SuggestedBy string `json:"suggestedBy"`
	}

	SavingsChallenge struct {
		ID       string `json:"id"`
		FamilyID string `json:"familyId"`
		Name     string `json:"name"`
		Target   Money  `json:"target"`
		Current  Money  `json:"current"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyFamily   = errors.New("empty family id")
	ErrEmptyUserID   = errors.New("empty user id")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// MarshalJSON writes the date as YYYY-MM-DD; the zero date becomes "".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the user can act as a session.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.FamilyID) == "" {
		return ErrEmptyFamily
	}
	return nil
}

func (t Transaction) Household() string      { return t.FamilyID }
func (b Bill) Household() string             { return b.FamilyID }
func (g SavingsGoal) Household() string      { return g.FamilyID }
func (w WishlistItem) Household() string     { return w.FamilyID }
func (c SavingsChallenge) Household() string { return c.FamilyID }

func (t Transaction) Identity() string      { return t.ID }
func (b Bill) Identity() string             { return b.ID }
func (g SavingsGoal) Identity() string      { return g.ID }
func (w WishlistItem) Identity() string     { return w.ID }
func (c SavingsChallenge) Identity() string { return c.ID }

// Draft types carry the caller-supplied fields; ids and household
// attribution are stamped by the store.
type (
	TransactionDraft struct {
		Amount   Money
		Category string
		Date     time.Time
		Note     string
	}

	BillDraft struct {
		Name    string
		Amount  Money
		DueDate Date
	}

	GoalDraft struct {
		Name          string
		TargetAmount  Money
		CurrentAmount Money
	}

	WishlistDraft struct {
		Name  string
		Price Money
	}

	ChallengeDraft struct {
		Name    string
		Target  Money
		Current Money
	}
)

func (d TransactionDraft) Validate() error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if len(d.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (d BillDraft) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.DueDate.IsZero() {
		if err := d.DueDate.Validate(); err != nil {
			return errors.New("invalid due date: " + err.Error())
		}
	}
	return nil
}

func (d GoalDraft) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if err := d.TargetAmount.Validate(); err != nil {
		return err
	}
	if d.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d WishlistDraft) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if d.Price.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d ChallengeDraft) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if err := d.Target.Validate(); err != nil {
		return err
	}
	if d.Current.Cents < 0 || d.Current.Cents > d.Target.Cents {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return nil
}
