package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/gateway"
	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/metrics"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/queue"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
)

const publishTimeout = 5 * time.Second

// RegistrationService admits users to tournaments, either directly for
// free tournaments or once a payment order settles as success.
//
// Per (user, tournament) the states are NotRegistered, PendingPayment and
// Confirmed. A failed order returns the pair to NotRegistered; the user
// may open a new order.
type RegistrationService struct {
	tournaments TournamentStore
	users       UserStore
	ledger      Ledger
	qr          QRGenerator
	oracle      PaymentOracle
	events      EventPublisher
	metrics     *metrics.Metrics
	log         *zap.Logger
	cfg         RegistrationConfig
	clock       Clock
}

// RegistrationConfig holds the payment settings loaded at startup.
type RegistrationConfig struct {
	OrderTTL            time.Duration
	RevalidateOnConfirm bool
	PayeeVPA            string
	PayeeName           string
}

// RegistrationDeps groups the collaborators. Events and Metrics may be nil.
type RegistrationDeps struct {
	Tournaments TournamentStore
	Users       UserStore
	Ledger      Ledger
	QR          QRGenerator
	Oracle      PaymentOracle
	Events      EventPublisher
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

func NewRegistrationService(d RegistrationDeps, cfg RegistrationConfig) *RegistrationService {
	if d.Tournaments == nil || d.Users == nil || d.Ledger == nil || d.QR == nil || d.Oracle == nil {
		panic("nil dependency passed to NewRegistrationService")
	}
	if cfg.OrderTTL <= 0 {
		cfg.OrderTTL = 15 * time.Minute
	}
	return &RegistrationService{
		tournaments: d.Tournaments,
		users:       d.Users,
		ledger:      d.Ledger,
		qr:          d.QR,
		oracle:      d.Oracle,
		events:      d.Events,
		metrics:     d.Metrics,
		log:         logger.OrNop(d.Log),
		cfg:         cfg,
	}
}

// WithClock overrides the time source.
func (s *RegistrationService) WithClock(c Clock) *RegistrationService {
	s.clock = c
	return s
}

// RegisterFree admits userID to a free tournament. Errors: NotFound,
// Conflict when already registered or full, Gone after the deadline,
// Validation for a paid tournament.
func (s *RegistrationService) RegisterFree(ctx context.Context, userID, tournamentID string) (model.Registration, error) {
	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return model.Registration{}, fromStore(err, "tournament")
	}
	if !t.IsFree() {
		return model.Registration{}, invalid("tournament requires an entry fee, create a payment order instead")
	}
	reg, err := s.ledger.AdmitFree(ctx, tournamentID, userID, s.clock.now())
	if err != nil {
		return model.Registration{}, fromStore(err, "tournament")
	}
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues("free").Inc()
	}
	s.log.Info("registration confirmed",
		zap.String("registration_id", reg.ID), zap.String("tournament_id", tournamentID), zap.String("user_id", userID))
	s.publish(ctx, reg, t, decimal.Zero)
	return reg, nil
}

// OrderInput opens a payment order. Amount is optional; when given it must
// equal the entry fee.
type OrderInput struct {
	TournamentID string           `json:"tournament_id"`
	Amount       *decimal.Decimal `json:"amount"`
}

// Order is returned to the payer together with the QR to scan.
type Order struct {
	OrderID   string          `json:"order_id"`
	QRCode    string          `json:"qr_code"`
	Amount    decimal.Decimal `json:"amount"`
	UPILink   string          `json:"upi_link"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// CreateOrder starts the paid path. A pair holds at most one payable
// order: while one is pending and unexpired it is returned again with a
// fresh QR instead of opening a second. The participant counter is
// untouched until the order settles as success.
func (s *RegistrationService) CreateOrder(ctx context.Context, userID string, in OrderInput) (Order, error) {
	if strings.TrimSpace(in.TournamentID) == "" {
		return Order{}, invalid("tournament_id is required")
	}
	t, err := s.tournaments.GetByID(ctx, in.TournamentID)
	if err != nil {
		return Order{}, fromStore(err, "tournament")
	}
	if t.IsFree() {
		return Order{}, invalid("tournament is free, register directly")
	}
	registered, err := s.ledger.HasRegistration(ctx, t.ID, userID)
	if err != nil {
		return Order{}, err
	}
	if registered {
		return Order{}, wrapError(ErrConflict, repository.ErrAlreadyRegistered, repository.ErrAlreadyRegistered.Error())
	}
	now := s.clock.now()
	if !t.AcceptsEntries(now) {
		return Order{}, wrapError(ErrGone, repository.ErrRegistrationClosed, repository.ErrRegistrationClosed.Error())
	}
	if t.IsFull() {
		return Order{}, wrapError(ErrConflict, repository.ErrTournamentFull, repository.ErrTournamentFull.Error())
	}
	if in.Amount != nil && !in.Amount.Equal(t.EntryFee) {
		return Order{}, invalid("amount does not match the entry fee")
	}

	p, err := s.ledger.OpenPayment(ctx, t.ID, userID, now)
	switch {
	case err == nil:
		s.log.Info("payment order reused",
			zap.String("order_id", p.OrderID), zap.String("tournament_id", t.ID), zap.String("user_id", userID))
		return s.present(ctx, t, p)
	case !errors.Is(err, repository.ErrNotFound):
		return Order{}, err
	}

	p = model.Payment{
		OrderID:      newOrderID(),
		UserID:       userID,
		TournamentID: t.ID,
		Amount:       t.EntryFee,
		Status:       model.PaymentPending,
		ExpiresAt:    now.Add(s.cfg.OrderTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.ledger.CreatePayment(ctx, &p); err != nil {
		return Order{}, err
	}
	if s.metrics != nil {
		s.metrics.OrdersCreatedTotal.Inc()
	}
	s.log.Info("payment order created",
		zap.String("order_id", p.OrderID), zap.String("tournament_id", t.ID), zap.String("user_id", userID))
	return s.present(ctx, t, p)
}

// present renders the UPI link and QR for a pending order.
func (s *RegistrationService) present(ctx context.Context, t model.Tournament, p model.Payment) (Order, error) {
	link := gateway.UPILink(s.cfg.PayeeVPA, s.cfg.PayeeName, p.OrderID, p.Amount, "Entry fee "+t.Name)
	qr, err := s.qr.Generate(ctx, link)
	if err != nil {
		s.log.Warn("qr generation failed", zap.String("order_id", p.OrderID), zap.Error(err))
		return Order{}, fromUpstream(err, "qr generator")
	}
	return Order{OrderID: p.OrderID, QRCode: qr, Amount: p.Amount, UPILink: link, ExpiresAt: p.ExpiresAt}, nil
}

// PaymentResult is what a status poll reports.
type PaymentResult struct {
	OrderID        string              `json:"order_id"`
	TournamentID   string              `json:"tournament_id"`
	Status         string              `json:"status"`
	Amount         decimal.Decimal     `json:"amount"`
	TransactionID  string              `json:"transaction_id,omitempty"`
	FailureReason  string              `json:"failure_reason,omitempty"`
	RefundRequired bool                `json:"refund_required"`
	Registered     bool                `json:"registered"`
	Registration   *model.Registration `json:"registration,omitempty"`
	ExpiresAt      time.Time           `json:"expires_at"`
}

// PaymentStatus resolves an order owned by userID. Terminal and expired
// orders are answered from the ledger; only a live pending order consults
// the oracle. Repeated or concurrent polls admit the payer at most once.
func (s *RegistrationService) PaymentStatus(ctx context.Context, userID, orderID string) (PaymentResult, error) {
	p, err := s.ledger.GetPayment(ctx, orderID)
	if err != nil {
		return PaymentResult{}, fromStore(err, "order")
	}
	if p.UserID != userID {
		return PaymentResult{}, newError(ErrNotFound, "order not found")
	}

	now := s.clock.now()
	settle := repository.Settlement{
		OrderID:    orderID,
		Status:     model.PaymentPending,
		Revalidate: s.cfg.RevalidateOnConfirm,
		Now:        now,
	}
	if !p.Terminal() && !p.Expired(now) {
		st, err := s.oracle.Check(ctx, orderID)
		if err != nil {
			s.log.Warn("payment oracle failed", zap.String("order_id", orderID), zap.Error(err))
			return PaymentResult{}, fromUpstream(err, "payment provider")
		}
		if !model.ValidPaymentStatus(st.Status) {
			return PaymentResult{}, newError(ErrUpstream, "payment provider returned an unknown status")
		}
		settle.Status, settle.TransactionID = st.Status, st.TransactionID
	}

	res, err := s.ledger.Settle(ctx, settle)
	if err != nil {
		return PaymentResult{}, fromStore(err, "order")
	}
	if p.Status == model.PaymentPending && res.Payment.Terminal() {
		s.settled(res.Payment)
	}
	if res.Admitted && res.Registration != nil {
		if s.metrics != nil {
			s.metrics.RegistrationsTotal.WithLabelValues("paid").Inc()
		}
		s.log.Info("registration confirmed",
			zap.String("registration_id", res.Registration.ID), zap.String("order_id", orderID))
		if t, err := s.tournaments.GetByID(ctx, res.Payment.TournamentID); err == nil {
			s.publish(ctx, *res.Registration, t, res.Payment.Amount)
		}
	}

	out := PaymentResult{
		OrderID:        res.Payment.OrderID,
		TournamentID:   res.Payment.TournamentID,
		Status:         res.Payment.Status,
		Amount:         res.Payment.Amount,
		TransactionID:  res.Payment.TransactionID,
		FailureReason:  res.Payment.FailureReason,
		RefundRequired: res.Payment.RefundRequired,
		ExpiresAt:      res.Payment.ExpiresAt,
	}
	if res.Registration != nil {
		out.Registered, out.Registration = true, res.Registration
	}
	return out, nil
}

// MyTournaments lists the caller's registrations, newest first.
func (s *RegistrationService) MyTournaments(ctx context.Context, userID string) ([]model.UserTournament, error) {
	return s.ledger.ListByUser(ctx, userID)
}

// ExpirePending settles every overdue pending order as failed.
func (s *RegistrationService) ExpirePending(ctx context.Context) (int64, error) {
	n, err := s.ledger.ExpirePending(ctx, s.clock.now())
	if err != nil {
		return 0, err
	}
	if n > 0 && s.metrics != nil {
		s.metrics.PaymentsSettledTotal.WithLabelValues(model.PaymentFailed).Add(float64(n))
	}
	return n, nil
}

func (s *RegistrationService) settled(p model.Payment) {
	if s.metrics != nil {
		s.metrics.PaymentsSettledTotal.WithLabelValues(p.Status).Inc()
	}
	fields := []zap.Field{zap.String("order_id", p.OrderID), zap.String("status", p.Status)}
	if p.RefundRequired {
		s.log.Warn("paid order needs a refund", append(fields, zap.String("reason", p.FailureReason))...)
		return
	}
	s.log.Info("payment settled", fields...)
}

// publish emits registration.confirmed. Broker failures are logged only.
func (s *RegistrationService) publish(ctx context.Context, reg model.Registration, t model.Tournament, amount decimal.Decimal) {
	if s.events == nil {
		return
	}
	ev := queue.RegistrationConfirmedEvent{
		RegistrationID: reg.ID,
		TournamentID:   t.ID,
		TournamentName: t.Name,
		UserID:         reg.UserID,
		Amount:         amount.StringFixed(2),
		StartsAt:       t.StartTime.UTC().Format(time.RFC3339),
		ConfirmedAt:    reg.RegisteredAt.UTC().Format(time.RFC3339),
	}
	if reg.PaymentOrderID != nil {
		ev.OrderID = *reg.PaymentOrderID
	}
	if u, err := s.users.GetByID(ctx, reg.UserID); err == nil {
		ev.Username = u.Username
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.PublishRegistrationConfirmed(pctx, ev); err != nil {
		s.log.Warn("registration event not published", zap.String("registration_id", reg.ID), zap.Error(err))
	}
}

// newOrderID returns "ORD_" followed by 16 hex characters.
func newOrderID() string {
	return "ORD_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}
