// Package memstore is an in-process implementation of every store the
// services depend on. One mutex guards all tables, so each method behaves
// like a serializable transaction. It backs STORAGE_DRIVER=memory and the
// service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
)

type pairKey struct{ tournamentID, userID string }

type leaderKey struct{ userID, gameType string }

type state struct {
	mu            sync.Mutex
	users         map[string]model.User
	tournaments   map[string]model.Tournament
	registrations map[pairKey]model.Registration
	payments      map[string]model.Payment
	leaderboard   map[leaderKey]model.LeaderboardEntry
}

// Store groups the per-table views over one shared state.
type Store struct {
	Users       *Users
	Tournaments *Tournaments
	Ledger      *Ledger
	Leaderboard *Leaderboard
}

// New returns an empty store.
func New() *Store {
	s := &state{
		users:         map[string]model.User{},
		tournaments:   map[string]model.Tournament{},
		registrations: map[pairKey]model.Registration{},
		payments:      map[string]model.Payment{},
		leaderboard:   map[leaderKey]model.LeaderboardEntry{},
	}
	return &Store{
		Users:       &Users{s},
		Tournaments: &Tournaments{s},
		Ledger:      &Ledger{s},
		Leaderboard: &Leaderboard{s},
	}
}

// Users mirrors repository.UserRepo.
type Users struct{ s *state }

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	if err := u.s.checkUnique(*user); err != nil {
		return err
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u *Users) GetByID(_ context.Context, id string) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return u.find(func(x model.User) bool { return x.Email == email })
}

func (u *Users) GetByFreeFireUID(_ context.Context, uid string) (model.User, error) {
	return u.find(func(x model.User) bool { return uid != "" && x.FreeFireUID == uid })
}

func (u *Users) find(match func(model.User) bool) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, x := range u.s.users {
		if match(x) {
			return x, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (u *Users) List(_ context.Context, page, pageSize int) ([]model.User, int64, error) {
	u.s.mu.Lock()
	all := make([]model.User, 0, len(u.s.users))
	for _, x := range u.s.users {
		all = append(all, x)
	}
	u.s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page, pageSize), int64(len(all)), nil
}

func (u *Users) Update(_ context.Context, user model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	cur, ok := u.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := u.s.checkUnique(user); err != nil {
		return err
	}
	user.Email, user.PasswordHash, user.CreatedAt = cur.Email, cur.PasswordHash, cur.CreatedAt
	u.s.users[user.ID] = user
	return nil
}

// Delete removes the user together with their registrations, payments and
// leaderboard rows.
func (u *Users) Delete(_ context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(u.s.users, id)
	for k := range u.s.registrations {
		if k.userID == id {
			delete(u.s.registrations, k)
		}
	}
	for k, p := range u.s.payments {
		if p.UserID == id {
			delete(u.s.payments, k)
		}
	}
	for k := range u.s.leaderboard {
		if k.userID == id {
			delete(u.s.leaderboard, k)
		}
	}
	return nil
}

// checkUnique enforces the unique keys on email, username and game UID
// against every other user. Caller holds the lock.
func (s *state) checkUnique(user model.User) error {
	for id, x := range s.users {
		if id == user.ID {
			continue
		}
		switch {
		case x.Email == strings.ToLower(user.Email):
			return repository.ErrEmailExists
		case x.Username == user.Username:
			return repository.ErrUsernameExists
		case user.FreeFireUID != "" && x.FreeFireUID == user.FreeFireUID:
			return repository.ErrUIDExists
		}
	}
	return nil
}

// Tournaments mirrors repository.TournamentRepo.
type Tournaments struct{ s *state }

func (t *Tournaments) Create(_ context.Context, tr *model.Tournament) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.tournaments[tr.ID] = *tr
	return nil
}

func (t *Tournaments) GetByID(_ context.Context, id string) (model.Tournament, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	tr, ok := t.s.tournaments[id]
	if !ok {
		return model.Tournament{}, repository.ErrNotFound
	}
	return tr, nil
}

func (t *Tournaments) List(_ context.Context, q repository.TournamentQuery) ([]model.Tournament, int64, error) {
	t.s.mu.Lock()
	matched := []model.Tournament{}
	for _, tr := range t.s.tournaments {
		if q.GameType != "" && tr.GameType != q.GameType {
			continue
		}
		if q.Country != "" && !strings.EqualFold(tr.Country, q.Country) {
			continue
		}
		if q.Mode != "" && tr.Mode != q.Mode {
			continue
		}
		if q.Status != "" && tr.Status != q.Status {
			continue
		}
		if q.OpenAt != nil && !tr.AcceptsEntries(*q.OpenAt) {
			continue
		}
		matched = append(matched, tr)
	}
	t.s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartTime.Equal(matched[j].StartTime) {
			return matched[i].StartTime.Before(matched[j].StartTime)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, q.Page, q.PageSize), int64(len(matched)), nil
}

func (t *Tournaments) Update(_ context.Context, tr model.Tournament) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.tournaments[tr.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if tr.MaxParticipants < cur.CurrentParticipants {
		return repository.ErrConflict
	}
	tr.CurrentParticipants, tr.CreatedBy, tr.CreatedAt = cur.CurrentParticipants, cur.CreatedBy, cur.CreatedAt
	t.s.tournaments[tr.ID] = tr
	return nil
}

func (t *Tournaments) Delete(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.tournaments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status == model.TournamentLive || cur.Status == model.TournamentCompleted {
		return repository.ErrConflict
	}
	delete(t.s.tournaments, id)
	for k := range t.s.registrations {
		if k.tournamentID == id {
			delete(t.s.registrations, k)
		}
	}
	for k, p := range t.s.payments {
		if p.TournamentID == id {
			delete(t.s.payments, k)
		}
	}
	return nil
}

func (t *Tournaments) StartDue(_ context.Context, now time.Time) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for id, tr := range t.s.tournaments {
		if tr.Status == model.TournamentUpcoming && !tr.StartTime.After(now) {
			tr.Status = model.TournamentLive
			tr.UpdatedAt = now
			t.s.tournaments[id] = tr
			n++
		}
	}
	return n, nil
}

// Ledger mirrors repository.LedgerRepo.
type Ledger struct{ s *state }

func (l *Ledger) AdmitFree(_ context.Context, tournamentID, userID string, now time.Time) (model.Registration, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	tr, ok := l.s.tournaments[tournamentID]
	if !ok {
		return model.Registration{}, repository.ErrNotFound
	}
	if _, ok := l.s.registrations[pairKey{tournamentID, userID}]; ok {
		return model.Registration{}, repository.ErrAlreadyRegistered
	}
	if !tr.AcceptsEntries(now) {
		return model.Registration{}, repository.ErrRegistrationClosed
	}
	if tr.IsFull() {
		return model.Registration{}, repository.ErrTournamentFull
	}
	return l.s.admit(tr, userID, nil, now), nil
}

func (l *Ledger) HasRegistration(_ context.Context, tournamentID, userID string) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	_, ok := l.s.registrations[pairKey{tournamentID, userID}]
	return ok, nil
}

func (l *Ledger) CreatePayment(_ context.Context, p *model.Payment) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.payments[p.OrderID] = *p
	return nil
}

func (l *Ledger) OpenPayment(_ context.Context, tournamentID, userID string, now time.Time) (model.Payment, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var (
		open  model.Payment
		found bool
	)
	for _, p := range l.s.payments {
		if p.TournamentID != tournamentID || p.UserID != userID || p.Status != model.PaymentPending || p.Expired(now) {
			continue
		}
		if !found || p.CreatedAt.After(open.CreatedAt) {
			open, found = p, true
		}
	}
	if !found {
		return model.Payment{}, repository.ErrNotFound
	}
	return open, nil
}

func (l *Ledger) GetPayment(_ context.Context, orderID string) (model.Payment, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	p, ok := l.s.payments[orderID]
	if !ok {
		return model.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (l *Ledger) Settle(_ context.Context, s repository.Settlement) (repository.SettlementResult, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	p, ok := l.s.payments[s.OrderID]
	if !ok {
		return repository.SettlementResult{}, repository.ErrNotFound
	}
	key := pairKey{p.TournamentID, p.UserID}

	status, reason := s.Status, s.FailureReason
	if p.Expired(s.Now) {
		status, reason = model.PaymentFailed, model.FailureExpired
	}
	if p.Terminal() || status == model.PaymentPending {
		res := repository.SettlementResult{Payment: p}
		if reg, ok := l.s.registrations[key]; ok && reg.PaidBy(p.OrderID) {
			res.Registration = &reg
		}
		return res, nil
	}

	p.Status = status
	p.TransactionID = s.TransactionID
	p.FailureReason = reason
	p.UpdatedAt = s.Now

	var res repository.SettlementResult
	if status == model.PaymentSuccess {
		tr, ok := l.s.tournaments[p.TournamentID]
		existing, registered := l.s.registrations[key]
		switch {
		case !ok:
			p.RefundRequired, p.FailureReason = true, model.FailureTournamentRemoved
		case registered && existing.PaidBy(p.OrderID):
			res.Registration = &existing
		case registered:
			p.RefundRequired, p.FailureReason = true, model.FailureAlreadyRegistered
		case s.Revalidate && !tr.AcceptsEntries(s.Now):
			p.RefundRequired, p.FailureReason = true, model.FailureRegistrationClosed
		case tr.IsFull():
			p.RefundRequired, p.FailureReason = true, model.FailureTournamentFull
		default:
			orderID := p.OrderID
			reg := l.s.admit(tr, p.UserID, &orderID, s.Now)
			res.Registration, res.Admitted = &reg, true
		}
	}
	l.s.payments[p.OrderID] = p
	res.Payment = p
	return res, nil
}

func (l *Ledger) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var n int64
	for id, p := range l.s.payments {
		if p.Expired(now) {
			p.Status, p.FailureReason, p.UpdatedAt = model.PaymentFailed, model.FailureExpired, now
			l.s.payments[id] = p
			n++
		}
	}
	return n, nil
}

func (l *Ledger) ListByUser(_ context.Context, userID string) ([]model.UserTournament, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := []model.UserTournament{}
	for k, reg := range l.s.registrations {
		if k.userID != userID {
			continue
		}
		out = append(out, model.UserTournament{Registration: reg, Tournament: l.s.tournaments[k.tournamentID]})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Registration, out[j].Registration
		if !a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.RegisteredAt.After(b.RegisteredAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// admit records the registration and bumps the counter. Caller holds the
// lock and has checked capacity.
func (s *state) admit(tr model.Tournament, userID string, orderID *string, now time.Time) model.Registration {
	reg := model.Registration{
		ID:             uuid.NewString(),
		TournamentID:   tr.ID,
		UserID:         userID,
		PaymentOrderID: orderID,
		Status:         model.RegistrationConfirmed,
		RegisteredAt:   now,
	}
	s.registrations[pairKey{tr.ID, userID}] = reg
	tr.CurrentParticipants++
	tr.UpdatedAt = now
	s.tournaments[tr.ID] = tr
	return reg
}

// Leaderboard mirrors repository.LeaderboardRepo.
type Leaderboard struct{ s *state }

func (l *Leaderboard) Upsert(_ context.Context, e model.LeaderboardEntry) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	e.Rank, e.Username = 0, ""
	l.s.leaderboard[leaderKey{e.UserID, e.GameType}] = e
	return nil
}

func (l *Leaderboard) Get(_ context.Context, userID, gameType string) (model.LeaderboardEntry, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	e, ok := l.s.leaderboard[leaderKey{userID, gameType}]
	if !ok {
		return model.LeaderboardEntry{}, repository.ErrNotFound
	}
	return e, nil
}

func (l *Leaderboard) List(_ context.Context, gameType string, limit int) ([]model.LeaderboardEntry, error) {
	l.s.mu.Lock()
	out := []model.LeaderboardEntry{}
	for k, e := range l.s.leaderboard {
		if k.gameType != gameType {
			continue
		}
		u, ok := l.s.users[k.userID]
		if !ok {
			continue
		}
		e.Username = u.Username
		out = append(out, e)
	}
	l.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SkillRating != out[j].SkillRating {
			return out[i].SkillRating > out[j].SkillRating
		}
		if c := out[i].TotalEarnings.Cmp(out[j].TotalEarnings); c != 0 {
			return c > 0
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return items
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
