// Package household is the family-scoped store: it owns the session and
// the five record collections, stamps and validates every mutation, and
// serves household-filtered views.
package household

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vesta/internal/collection"
	"vesta/internal/core"
	"vesta/internal/log"
	"vesta/internal/metrics"
	"vesta/internal/scope"
	"vesta/internal/session"
	"vesta/internal/storage"
)

// Errors returned by Store mutations.
var (
	ErrNoActiveSession = errors.New("no active session")
	ErrRecordNotFound  = errors.New("record not found")
	ErrIDCollision     = errors.New("identifier collision")
)

const maxIDAttempts = 3

// Store holds the session and the household records, and applies mutations
// one at a time with write-through persistence.
type Store struct {
	mu sync.Mutex

	session      *session.Store
	transactions *collection.Collection[core.Transaction]
	bills        *collection.Collection[core.Bill]
	goals        *collection.Collection[core.SavingsGoal]
	wishlist     *collection.Collection[core.WishlistItem]
	challenges   *collection.Collection[core.SavingsChallenge]

	celebrator Celebrator
	newID      func() string
	now        func() time.Time
	logger     *log.Logger
	metrics    *metrics.Metrics
}

// Option configures a Store at Open.
type Option func(*Store)

// WithCelebrator receives an Event after every successful mutation.
func WithCelebrator(c Celebrator) Option {
	return func(s *Store) {
		if c != nil {
			s.celebrator = c
		}
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithClock replaces time.Now for dates and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics counts mutations by operation and result.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Open restores the session and every collection from port.
func Open(ctx context.Context, port storage.Port, opts ...Option) *Store {
	s := &Store{
		celebrator: nopCelebrator{},
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
		logger:     log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)

	s.session = session.Open(ctx, port, s.logger)
	s.transactions = collection.Load[core.Transaction](ctx, port, storage.KeyTransactions, s.logger)
	s.bills = collection.Load[core.Bill](ctx, port, storage.KeyBills, s.logger)
	s.goals = collection.Load[core.SavingsGoal](ctx, port, storage.KeyVisions, s.logger)
	s.wishlist = collection.Load[core.WishlistItem](ctx, port, storage.KeyDesires, s.logger)
	s.challenges = collection.Load[core.SavingsChallenge](ctx, port, storage.KeyChallenges, s.logger)

	s.logger.InfoContext(ctx, "Household store opened",
		"transactions", s.transactions.Len(),
		"bills", s.bills.Len(),
		"visions", s.goals.Len(),
		"desires", s.wishlist.Len(),
		"challenges", s.challenges.Len(),
		"signed_in", s.session.HouseholdID() != "")
	return s
}

// CurrentUser returns the signed-in user.
func (s *Store) CurrentUser() (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Current()
}

// Transactions returns the active household's transactions.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scope.Project(s.transactions.All(), s.session.HouseholdID())
}

// Bills returns the active household's bills.
func (s *Store) Bills() []core.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scope.Project(s.bills.All(), s.session.HouseholdID())
}

// Goals returns the active household's savings goals.
func (s *Store) Goals() []core.SavingsGoal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scope.Project(s.goals.All(), s.session.HouseholdID())
}

// Wishlist returns the active household's wishlist items.
func (s *Store) Wishlist() []core.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scope.Project(s.wishlist.All(), s.session.HouseholdID())
}

// Challenges returns the active household's savings challenges.
func (s *Store) Challenges() []core.SavingsChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scope.Project(s.challenges.All(), s.session.HouseholdID())
}

// Login makes u the current session.
func (s *Store) Login(ctx context.Context, u core.User) error {
	s.mu.Lock()
	err := s.session.Set(ctx, u)
	s.mu.Unlock()
	s.observe(log.OpLogin, err)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User signed in", log.FieldUserID, u.ID, log.FieldHouseholdID, u.FamilyID)
	return nil
}

// Logout ends the session and removes it from storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	err := s.session.Clear(ctx)
	s.mu.Unlock()
	s.observe(log.OpLogout, err)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User signed out")
	return nil
}

// UpdateProfile changes the session's display name and avatar. Identity,
// household and role are kept. Records already attributed to the old
// name keep it.
func (s *Store) UpdateProfile(ctx context.Context, name, avatar string) (core.User, error) {
	var updated core.User
	err := s.mutate(ctx, "update_profile", func(u core.User) (Event, error) {
		if strings.TrimSpace(name) == "" {
			return Event{}, core.ErrEmptyName
		}
		updated = u
		updated.Name = name
		updated.Avatar = avatar
		if err := s.session.Set(ctx, updated); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventProfileUpdated, RecordID: u.ID}, nil
	})
	return updated, err
}

// AddTransaction records a household transaction attributed to the session user.
func (s *Store) AddTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	var rec core.Transaction
	err := s.mutate(ctx, "add_transaction", func(u core.User) (Event, error) {
		if err := d.Validate(); err != nil {
			return Event{}, err
		}
		id, err := uniqueID(s.transactions, s.newID)
		if err != nil {
			return Event{}, err
		}
		date := d.Date
		if date.IsZero() {
			date = s.now().UTC()
		}
		rec = core.Transaction{
			ID:       id,
			FamilyID: u.FamilyID,
			UserID:   u.ID,
			UserName: u.Name,
			Amount:   d.Amount,
			Category: d.Category,
			Date:     date,
			Note:     d.Note,
		}
		if err := s.transactions.Append(ctx, rec); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventTransactionAdded, RecordID: id, Amount: rec.Amount}, nil
	})
	return rec, err
}

// AddBill records an unpaid bill for the household.
func (s *Store) AddBill(ctx context.Context, d core.BillDraft) (core.Bill, error) {
	var rec core.Bill
	err := s.mutate(ctx, "add_bill", func(u core.User) (Event, error) {
		if err := d.Validate(); err != nil {
			return Event{}, err
		}
		id, err := uniqueID(s.bills, s.newID)
		if err != nil {
			return Event{}, err
		}
		rec = core.Bill{
			ID:       id,
			FamilyID: u.FamilyID,
			Name:     d.Name,
			Amount:   d.Amount,
			DueDate:  d.DueDate,
			IsPaid:   false,
		}
		if err := s.bills.Append(ctx, rec); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventBillAdded, RecordID: id, Amount: rec.Amount}, nil
	})
	return rec, err
}

// ToggleBill flips the paid flag of a household bill.
func (s *Store) ToggleBill(ctx context.Context, id string) (core.Bill, error) {
	var rec core.Bill
	err := s.mutate(ctx, "toggle_bill", func(u core.User) (Event, error) {
		n, err := s.bills.UpdateWhere(ctx, owned[core.Bill](id, u.FamilyID), func(b core.Bill) core.Bill {
			b.IsPaid = !b.IsPaid
			rec = b
			return b
		})
		if err != nil {
			return Event{}, err
		}
		if n == 0 {
			return Event{}, fmt.Errorf("bill %s: %w", id, ErrRecordNotFound)
		}
		return Event{Kind: EventBillToggled, RecordID: id, Amount: rec.Amount}, nil
	})
	return rec, err
}

// AddGoal creates a savings goal ("vision").
func (s *Store) AddGoal(ctx context.Context, d core.GoalDraft) (core.SavingsGoal, error) {
	var rec core.SavingsGoal
	err := s.mutate(ctx, "add_goal", func(u core.User) (Event, error) {
		if err := d.Validate(); err != nil {
			return Event{}, err
		}
		id, err := uniqueID(s.goals, s.newID)
		if err != nil {
			return Event{}, err
		}
		rec = core.SavingsGoal{
			ID:            id,
			FamilyID:      u.FamilyID,
			Name:          d.Name,
			TargetAmount:  d.TargetAmount,
			CurrentAmount: d.CurrentAmount,
		}
		if err := s.goals.Append(ctx, rec); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventGoalAdded, RecordID: id, Amount: rec.TargetAmount}, nil
	})
	return rec, err
}

// DepositToGoal adds amount to a goal. The total is not capped at the target.
func (s *Store) DepositToGoal(ctx context.Context, id string, amount core.Money) (core.SavingsGoal, error) {
	var rec core.SavingsGoal
	err := s.mutate(ctx, "deposit_goal", func(u core.User) (Event, error) {
		if err := amount.Validate(); err != nil {
			return Event{}, err
		}
		match := owned[core.SavingsGoal](id, u.FamilyID)
		goal, ok := s.goals.Find(match)
		if !ok {
			return Event{}, fmt.Errorf("vision %s: %w", id, ErrRecordNotFound)
		}
		sum, err := goal.CurrentAmount.CheckedAdd(amount)
		if err != nil {
			return Event{}, fmt.Errorf("vision %s: %w", id, err)
		}
		if _, err := s.goals.UpdateWhere(ctx, match, func(g core.SavingsGoal) core.SavingsGoal {
			g.CurrentAmount = sum
			rec = g
			return g
		}); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventGoalDeposit, RecordID: id, Amount: amount}, nil
	})
	return rec, err
}

// AddWishlistItem suggests a desire; it starts with the suggester's vote.
func (s *Store) AddWishlistItem(ctx context.Context, d core.WishlistDraft) (core.WishlistItem, error) {
	var rec core.WishlistItem
	err := s.mutate(ctx, "add_wish", func(u core.User) (Event, error) {
		if err := d.Validate(); err != nil {
			return Event{}, err
		}
		id, err := uniqueID(s.wishlist, s.newID)
		if err != nil {
			return Event{}, err
		}
		rec = core.WishlistItem{
			ID:          id,
			FamilyID:    u.FamilyID,
			Name:        d.Name,
			Price:       d.Price,
			Votes:       1,
			SuggestedBy: u.Name,
		}
		if err := s.wishlist.Append(ctx, rec); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventWishAdded, RecordID: id, Amount: rec.Price}, nil
	})
	return rec, err
}

// VoteWishlistItem adds one vote. Repeat votes by the same user all count.
func (s *Store) VoteWishlistItem(ctx context.Context, id string) (core.WishlistItem, error) {
	var rec core.WishlistItem
	err := s.mutate(ctx, "vote_wish", func(u core.User) (Event, error) {
		n, err := s.wishlist.UpdateWhere(ctx, owned[core.WishlistItem](id, u.FamilyID), func(w core.WishlistItem) core.WishlistItem {
			w.Votes++
			rec = w
			return w
		})
		if err != nil {
			return Event{}, err
		}
		if n == 0 {
			return Event{}, fmt.Errorf("desire %s: %w", id, ErrRecordNotFound)
		}
		return Event{Kind: EventWishVoted, RecordID: id}, nil
	})
	return rec, err
}

// AddChallenge creates a savings challenge.
func (s *Store) AddChallenge(ctx context.Context, d core.ChallengeDraft) (core.SavingsChallenge, error) {
	var rec core.SavingsChallenge
	err := s.mutate(ctx, "add_challenge", func(u core.User) (Event, error) {
		if err := d.Validate(); err != nil {
			return Event{}, err
		}
		id, err := uniqueID(s.challenges, s.newID)
		if err != nil {
			return Event{}, err
		}
		rec = core.SavingsChallenge{
			ID:       id,
			FamilyID: u.FamilyID,
			Name:     d.Name,
			Target:   d.Target,
			Current:  d.Current,
		}
		if err := s.challenges.Append(ctx, rec); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventChallengeAdded, RecordID: id, Amount: rec.Target}, nil
	})
	return rec, err
}

// ContributeToChallenge adds amount to a challenge, clamped at its target.
func (s *Store) ContributeToChallenge(ctx context.Context, id string, amount core.Money) (core.SavingsChallenge, error) {
	var rec core.SavingsChallenge
	err := s.mutate(ctx, "contribute_challenge", func(u core.User) (Event, error) {
		if err := amount.Validate(); err != nil {
			return Event{}, err
		}
		n, err := s.challenges.UpdateWhere(ctx, owned[core.SavingsChallenge](id, u.FamilyID), func(c core.SavingsChallenge) core.SavingsChallenge {
			// Compare against the headroom so a huge amount cannot wrap.
			if amount.Cents >= c.Target.Cents-c.Current.Cents {
				c.Current = c.Target
			} else {
				c.Current = c.Current.Add(amount)
			}
			rec = c
			return c
		})
		if err != nil {
			return Event{}, err
		}
		if n == 0 {
			return Event{}, fmt.Errorf("challenge %s: %w", id, ErrRecordNotFound)
		}
		return Event{Kind: EventChallengeContribution, RecordID: id, Amount: amount}, nil
	})
	return rec, err
}

// Flush rewrites the session and every collection, one key per goroutine.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.session.Flush(gctx) })
	g.Go(func() error { return s.transactions.Flush(gctx) })
	g.Go(func() error { return s.bills.Flush(gctx) })
	g.Go(func() error { return s.goals.Flush(gctx) })
	g.Go(func() error { return s.wishlist.Flush(gctx) })
	g.Go(func() error { return s.challenges.Flush(gctx) })
	err := g.Wait()
	s.observe(log.OpFlush, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Flush failed", log.FieldError, err)
		return fmt.Errorf("flush store: %w", err)
	}
	return nil
}

// Close flushes the store at teardown. The port is owned by the caller.
func (s *Store) Close(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Household store closed")
	return nil
}

// mutate runs fn under the store lock with the session user, then records
// metrics and hands the resulting event to the celebrator.
func (s *Store) mutate(ctx context.Context, op string, fn func(u core.User) (Event, error)) error {
	s.mu.Lock()
	u, ok := s.session.Current()
	if !ok {
		s.mu.Unlock()
		s.observe(op, ErrNoActiveSession)
		return ErrNoActiveSession
	}
	e, err := fn(u)
	s.mu.Unlock()

	s.observe(op, err)
	if err != nil {
		fields := log.NewFields().WithOperation(op).WithError(err)
		fields[log.FieldHouseholdID] = u.FamilyID
		s.logger.WarnContext(ctx, "Mutation rejected", fields.ToSlice()...)
		return err
	}

	e.HouseholdID = u.FamilyID
	e.ActorID = u.ID
	e.ActorName = u.Name
	e.At = s.now()
	s.logger.DebugContext(ctx, "Mutation applied",
		log.NewFields().WithOperation(op).WithRecord(string(e.Kind), e.RecordID, e.HouseholdID).ToSlice()...)
	s.celebrator.Celebrate(ctx, e)
	return nil
}

func (s *Store) observe(op string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Mutations.WithLabelValues(op, metrics.Result(err)).Inc()
}

type record interface {
	scope.Scoped
	Identity() string
}

// owned matches the record with id inside the given household only.
func owned[T record](id, householdID string) func(T) bool {
	return func(r T) bool {
		return r.Identity() == id && r.Household() == householdID
	}
}

// uniqueID draws ids until one is unused in c.
func uniqueID[T record](c *collection.Collection[T], gen func() string) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := gen()
		if id == "" {
			continue
		}
		if _, taken := c.Find(func(r T) bool { return r.Identity() == id }); !taken {
			return id, nil
		}
	}
	return "", ErrIDCollision
}
