package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/events"
	"hotelbooking/internal/domain/pricing"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/pkg/validator"
)

type Service struct {
	repo      *Repository
	catalog   Catalog
	wallet    Wallet
	deposit   DepositPolicy
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewService(
	repo *Repository,
	catalog Catalog,
	wallet Wallet,
	deposit DepositPolicy,
	publisher events.Publisher,
	log *logger.Logger,
) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		catalog:   catalog,
		wallet:    wallet,
		deposit:   deposit,
		publisher: publisher,
		log:       log.WithComponent("booking"),
		now:       time.Now,
	}
}

func (s *Service) DepositPolicy() DepositPolicy {
	return s.deposit
}

// Create validates the booking form, snapshots current prices and stores the
// booking. When the deposit policy asks for one, the booking moves straight
// to pending_deposit in the same transaction.
func (s *Service) Create(ctx context.Context, userID int64, req CreateBookingRequest) (*Booking, error) {
	fields := validator.Validate(req)
	if fields == nil {
		fields = map[string]string{}
	}

	checkIn, err := pricing.ParseDate(req.CheckIn)
	if err != nil && req.CheckIn != "" {
		fields["check_in"] = "invalid_date"
	}
	checkOut, err := pricing.ParseDate(req.CheckOut)
	if err != nil && req.CheckOut != "" {
		fields["check_out"] = "invalid_date"
	}
	if _, bad := fields["check_in"]; !bad && !checkIn.IsZero() {
		if dayOf(checkIn).Before(dayOf(s.now())) {
			fields["check_in"] = "in_past"
		}
	}
	if fields["check_in"] == "" && fields["check_out"] == "" && pricing.Nights(checkIn, checkOut) <= 0 {
		fields["check_out"] = "must_be_after_check_in"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	room, err := s.catalog.GetRoom(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, invalid("room_id", "not_found")
		}
		return nil, err
	}
	if !room.IsActive {
		return nil, invalid("room_id", "unavailable")
	}
	capacity := room.Capacity()
	if req.Adults > capacity.Adults {
		fields["adults"] = fmt.Sprintf("exceeds_capacity:%d", capacity.Adults)
	}
	if req.Children > capacity.Children {
		fields["children"] = fmt.Sprintf("exceeds_capacity:%d", capacity.Children)
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	selections, lines, err := s.snapshotServices(ctx, userID, req.Services)
	if err != nil {
		return nil, err
	}

	quote := pricing.ComputeQuote(room.Price, checkIn, checkOut, selections)
	if !quote.Valid() {
		return nil, invalid("total", "incomplete")
	}

	b := &Booking{
		UserID:         userID,
		HotelID:        room.HotelID,
		RoomID:         room.ID,
		CheckIn:        dayOf(checkIn),
		CheckOut:       dayOf(checkOut),
		Nights:         quote.Nights,
		Adults:         req.Adults,
		Children:       req.Children,
		ContactName:    strings.TrimSpace(req.ContactName),
		ContactEmail:   strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone:   strings.TrimSpace(req.ContactPhone),
		Notes:          req.Notes,
		RoomRate:       room.Price,
		RoomPrice:      quote.RoomSubtotal,
		ServicePrice:   quote.ServiceSubtotal,
		TotalPrice:     quote.Total,
		EstimatedPrice: quote.Total,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		PaymentMethod:  req.PaymentMethod,
		Services:       lines,
	}

	deposit := s.deposit.Required(quote.Total)
	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, b); err != nil {
			return err
		}
		if deposit == 0 {
			return nil
		}
		if err := repo.UpdateIfStatus(ctx, b.ID, StatusPending, map[string]any{
			"status":         StatusPendingDeposit,
			"deposit_amount": deposit,
		}); err != nil {
			return err
		}
		b.Status = StatusPendingDeposit
		b.DepositAmount = deposit
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created", "booking_id", b.ID, "user_id", userID, "total", b.TotalPrice, "status", b.Status)
	s.publish(ctx, events.BookingCreated, b, map[string]any{"status": b.Status, "total_price": b.TotalPrice})
	return b, nil
}

func (s *Service) snapshotServices(ctx context.Context, userID int64, selected []ServiceSelection) ([]pricing.Selection, []ServiceLine, error) {
	ids := make([]int64, 0, len(selected))
	for _, sel := range selected {
		if sel.Quantity >= 1 {
			ids = append(ids, sel.ServiceID)
		}
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	found, err := s.catalog.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	selections := make([]pricing.Selection, 0, len(ids))
	lines := make([]ServiceLine, 0, len(ids))
	for _, sel := range selected {
		if sel.Quantity < 1 {
			continue
		}
		svc, ok := found[sel.ServiceID]
		if !ok || !svc.IsActive {
			return nil, nil, invalid("services", fmt.Sprintf("unknown_service:%d", sel.ServiceID))
		}
		selections = append(selections, pricing.Selection{ServiceID: svc.ID, Price: svc.Price, Quantity: sel.Quantity})
		lines = append(lines, ServiceLine{
			ServiceID: svc.ID,
			Name:      svc.Name,
			Price:     svc.Price,
			Quantity:  sel.Quantity,
			AddedBy:   userID,
		})
	}
	return selections, lines, nil
}

// Get returns a booking visible to the actor.
func (s *Service) Get(ctx context.Context, actor Actor, id int64) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && b.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64, limit, offset int) ([]Booking, error) {
	limit, offset = page(limit, offset)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int) (*ListResult, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("status", "unknown")
	}
	limit, offset = page(limit, offset)
	rows, total, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListResult{Bookings: rows, Total: total}, nil
}

// PayFromWallet settles the outstanding amount from the user's bonus and
// wallet balances. The booking is confirmed only if the covered amount
// reaches the deposit (or the full total when no deposit applies);
// otherwise nothing is deducted.
func (s *Service) PayFromWallet(ctx context.Context, userID, id int64) (*Booking, error) {
	var (
		from    Status
		settled int64
	)
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if b.PaymentStatus == PaymentPaid {
			return ErrAlreadyPaid
		}
		if b.PaymentStatus != PaymentPending || (b.Status != StatusPending && b.Status != StatusPendingDeposit) {
			return ErrNotPayable
		}
		if !b.Status.CanTransitionTo(StatusConfirmed) {
			return ErrInvalidStatusTransition
		}

		due := b.Outstanding()
		minimum := due
		if b.DepositAmount > 0 {
			minimum = min(max(b.DepositAmount-b.PaidFromBalances(), 0), due)
		}

		plan, err := s.wallet.SettleInTx(tx, b.UserID, b.ID, due, minimum)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"status":           StatusConfirmed,
			"paid_from_wallet": b.PaidFromWallet + plan.PaidFromWallet,
			"paid_from_bonus":  b.PaidFromBonus + plan.PaidFromBonus,
		}
		if plan.RemainingDue == 0 {
			updates["payment_status"] = PaymentPaid
		}
		from, settled = b.Status, plan.Paid()
		return repo.UpdateIfStatus(ctx, b.ID, b.Status, updates)
	})
	if err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking paid from wallet", "booking_id", id, "amount", settled, "payment_status", b.PaymentStatus)
	s.wallet.NotifyChanged(ctx, b.UserID, b.ID, "booking_payment")
	s.publishStatus(ctx, b, from)
	s.publish(ctx, events.BookingPaymentUpdate, b, map[string]any{"payment_status": b.PaymentStatus, "settled": settled})
	return b, nil
}

// SubmitDepositProof records a bank-transfer reference for the deposit.
func (s *Service) SubmitDepositProof(ctx context.Context, userID, id int64, reference string) (*Booking, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, invalid("reference", "required")
	}
	return s.transition(ctx, id, StatusAwaitingApproval, func(b *Booking) (map[string]any, error) {
		if b.UserID != userID {
			return nil, ErrForbidden
		}
		if b.Status != StatusPendingDeposit {
			return nil, ErrInvalidStatusTransition
		}
		if b.PaymentMethod != MethodBankTransfer {
			return nil, ErrProofNotAccepted
		}
		return map[string]any{"deposit_proof": reference}, nil
	})
}

// Approve confirms a booking whose deposit proof was checked, or a pending
// booking that needs no deposit. Approving a proof records the transferred
// deposit as paid externally.
func (s *Service) Approve(ctx context.Context, id int64) (*Booking, error) {
	return s.transition(ctx, id, StatusConfirmed, func(b *Booking) (map[string]any, error) {
		switch b.Status {
		case StatusAwaitingApproval:
			received := min(max(b.DepositAmount-b.PaidFromBalances()-b.PaidExternally, 0), b.Outstanding())
			updates := map[string]any{"paid_externally": b.PaidExternally + received}
			if b.Outstanding() == received {
				updates["payment_status"] = PaymentPaid
			}
			return updates, nil
		case StatusPending:
			if b.DepositAmount > 0 {
				return nil, ErrDepositRequired
			}
		case StatusPendingDeposit:
			return nil, ErrDepositRequired
		default:
			return nil, ErrInvalidStatusTransition
		}
		return map[string]any{}, nil
	})
}

func (s *Service) CheckIn(ctx context.Context, id int64) (*Booking, error) {
	return s.update(ctx, id, func(b *Booking) (map[string]any, error) {
		if b.Status != StatusConfirmed {
			return nil, ErrNotConfirmed
		}
		if b.CheckedIn() {
			return nil, ErrAlreadyCheckedIn
		}
		return map[string]any{"actual_check_in": s.now()}, nil
	})
}

// AddService appends a priced snapshot of a catalog service to a checked-in stay.
func (s *Service) AddService(ctx context.Context, actorID, id, serviceID int64, quantity int) (*Booking, error) {
	if quantity < 1 {
		return nil, invalid("quantity", "min_1")
	}
	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, invalid("service_id", "not_found")
		}
		return nil, err
	}
	return s.addService(ctx, actorID, id, svc, quantity)
}

// AddServiceByCode resolves a scanned service QR code and adds it.
func (s *Service) AddServiceByCode(ctx context.Context, actorID, id int64, code string, quantity int) (*Booking, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, invalid("quantity", "min_1")
	}
	svc, err := s.catalog.GetServiceByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, invalid("code", "unknown")
		}
		return nil, err
	}
	return s.addService(ctx, actorID, id, svc, quantity)
}

func (s *Service) addService(ctx context.Context, actorID, id int64, svc *catalog.Service, quantity int) (*Booking, error) {
	if !svc.IsActive {
		return nil, invalid("service_id", "unavailable")
	}

	line := ServiceLine{
		BookingID: id,
		ServiceID: svc.ID,
		Name:      svc.Name,
		Price:     svc.Price,
		Quantity:  quantity,
		AddedBy:   actorID,
	}
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusConfirmed {
			return ErrNotConfirmed
		}
		if !b.CheckedIn() {
			return ErrNotCheckedIn
		}
		if b.CheckedOut() {
			return ErrAlreadyCheckedOut
		}

		if err := repo.AddServiceLine(ctx, &line); err != nil {
			return err
		}
		servicePrice := b.ServicePrice + line.Subtotal()
		updates := map[string]any{
			"service_price": servicePrice,
			"total_price":   b.RoomPrice + servicePrice,
		}
		if b.PaymentStatus == PaymentPaid {
			// the new charge is unpaid until collected at checkout
			updates["payment_status"] = PaymentPending
		}
		return repo.UpdateIfStatus(ctx, b.ID, StatusConfirmed, updates)
	})
	if err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingServiceAdded, b, map[string]any{
		"service_id": line.ServiceID,
		"quantity":   line.Quantity,
		"amount":     line.Subtotal(),
	})
	return b, nil
}

// Checkout closes the stay: it freezes the final price, settles what is
// left from the wallet for wallet bookings and completes the booking.
func (s *Service) Checkout(ctx context.Context, id int64) (*Booking, error) {
	var settled int64
	b, err := s.transitionTx(ctx, id, StatusCompleted, func(tx *gorm.DB, b *Booking) (map[string]any, error) {
		if b.Status != StatusConfirmed {
			return nil, ErrNotConfirmed
		}
		if !b.CheckedIn() {
			return nil, ErrNotCheckedIn
		}
		if b.CheckedOut() {
			return nil, ErrAlreadyCheckedOut
		}

		updates := map[string]any{
			"actual_check_out": s.now(),
			"final_price":      b.TotalPrice,
		}
		if b.PaymentMethod != MethodWallet || b.PaymentStatus == PaymentPaid {
			return updates, nil
		}

		remaining := b.Outstanding()
		if remaining > 0 {
			plan, err := s.wallet.SettleInTx(tx, b.UserID, b.ID, remaining, 0)
			if err != nil {
				return nil, err
			}
			updates["paid_from_wallet"] = b.PaidFromWallet + plan.PaidFromWallet
			updates["paid_from_bonus"] = b.PaidFromBonus + plan.PaidFromBonus
			remaining = plan.RemainingDue
			settled = plan.Paid()
		}
		if remaining == 0 {
			updates["payment_status"] = PaymentPaid
		}
		return updates, nil
	})
	if err != nil {
		return nil, err
	}

	if settled > 0 {
		s.wallet.NotifyChanged(ctx, b.UserID, b.ID, "booking_checkout")
		s.publish(ctx, events.BookingPaymentUpdate, b, map[string]any{"payment_status": b.PaymentStatus, "settled": settled})
	}
	return b, nil
}

// MarkPaid records payment collected outside the wallet (cash, bank). The
// amount collected is whatever was outstanding at that moment.
func (s *Service) MarkPaid(ctx context.Context, id int64) (*Booking, error) {
	b, err := s.update(ctx, id, func(b *Booking) (map[string]any, error) {
		if b.PaymentStatus == PaymentPaid {
			return nil, ErrAlreadyPaid
		}
		if b.PaymentStatus != PaymentPending || (b.Status != StatusConfirmed && b.Status != StatusCompleted) {
			return nil, ErrNotPayable
		}
		return map[string]any{
			"payment_status":  PaymentPaid,
			"paid_externally": b.PaidExternally + b.Outstanding(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingPaymentUpdate, b, map[string]any{"payment_status": b.PaymentStatus})
	return b, nil
}

// Cancel moves the booking to cancelled. Guests may cancel only before
// confirmation. Wallet and bonus deductions are re-credited with new
// refund entries.
func (s *Service) Cancel(ctx context.Context, actor Actor, id int64, reason string) (*Booking, error) {
	var refunded bool
	b, err := s.transitionTx(ctx, id, StatusCancelled, func(tx *gorm.DB, b *Booking) (map[string]any, error) {
		if !actor.Admin {
			if b.UserID != actor.UserID {
				return nil, ErrForbidden
			}
			if !b.Status.IsTerminal() && !b.Status.GuestCancellable() {
				return nil, ErrCancelNotAllowed
			}
		}
		if !b.Status.CanTransitionTo(StatusCancelled) {
			return nil, ErrInvalidStatusTransition
		}

		updates := map[string]any{
			"cancelled_at":        s.now(),
			"cancellation_reason": strings.TrimSpace(reason),
		}
		if b.PaidFromBalances() > 0 {
			if _, err := s.wallet.RefundInTx(tx, b.UserID, b.ID, b.PaidFromWallet, b.PaidFromBonus); err != nil {
				return nil, err
			}
			refunded = true
		}
		if refunded || b.PaymentStatus == PaymentPaid {
			updates["payment_status"] = PaymentRefunded
		}
		return updates, nil
	})
	if err != nil {
		return nil, err
	}

	if refunded {
		s.log.Info("booking refunded", "booking_id", b.ID, "wallet", b.PaidFromWallet, "bonus", b.PaidFromBonus)
		s.wallet.NotifyChanged(ctx, b.UserID, b.ID, "booking_refund")
		s.publish(ctx, events.BookingPaymentUpdate, b, map[string]any{"payment_status": b.PaymentStatus})
	}
	return b, nil
}

type mutation func(b *Booking) (map[string]any, error)

type txMutation func(tx *gorm.DB, b *Booking) (map[string]any, error)

// update applies a guarded change that keeps the status.
func (s *Service) update(ctx context.Context, id int64, fn mutation) (*Booking, error) {
	return s.apply(ctx, id, "", func(_ *gorm.DB, b *Booking) (map[string]any, error) { return fn(b) })
}

func (s *Service) transition(ctx context.Context, id int64, to Status, fn mutation) (*Booking, error) {
	return s.apply(ctx, id, to, func(_ *gorm.DB, b *Booking) (map[string]any, error) { return fn(b) })
}

func (s *Service) transitionTx(ctx context.Context, id int64, to Status, fn txMutation) (*Booking, error) {
	return s.apply(ctx, id, to, fn)
}

// apply locks the booking, runs the guard, and writes the updates only if
// the status is still the one the guard saw. A non-empty to is checked
// against the transition table and published after commit.
func (s *Service) apply(ctx context.Context, id int64, to Status, fn txMutation) (*Booking, error) {
	var from Status
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		updates, err := fn(tx, b)
		if err != nil {
			return err
		}
		if to != "" {
			if !b.Status.CanTransitionTo(to) {
				return ErrInvalidStatusTransition
			}
			updates["status"] = to
		}
		from = b.Status
		return repo.UpdateIfStatus(ctx, b.ID, b.Status, updates)
	})
	if err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if to != "" {
		s.publishStatus(ctx, b, from)
	}
	return b, nil
}

func (s *Service) publishStatus(ctx context.Context, b *Booking, from Status) {
	if from == b.Status {
		return
	}
	s.log.Info("booking status changed", "booking_id", b.ID, "from", from, "to", b.Status)
	s.publish(ctx, events.BookingStatusChanged, b, map[string]any{"from": from, "to": b.Status})
}

func (s *Service) publish(ctx context.Context, typ string, b *Booking, payload map[string]any) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       typ,
		UserID:     b.UserID,
		BookingID:  b.ID,
		Payload:    payload,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.log.Warn("publish booking event failed", "booking_id", b.ID, "type", typ, "error", err)
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
