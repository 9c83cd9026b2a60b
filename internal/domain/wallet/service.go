package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotelbooking/internal/domain/events"
	"hotelbooking/internal/pkg/logger"
)

const defaultCodeTTL = 5 * time.Minute

type Service struct {
	db        *gorm.DB
	publisher events.Publisher
	codes     CodeSender
	codeTTL   time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, publisher events.Publisher, codes CodeSender, codeTTL time.Duration, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if codes == nil {
		codes = NewDevConsoleSender(log)
	}
	if codeTTL <= 0 {
		codeTTL = defaultCodeTTL
	}
	return &Service{
		db:        db,
		publisher: publisher,
		codes:     codes,
		codeTTL:   codeTTL,
		log:       log.WithComponent("wallet"),
		now:       time.Now,
	}
}

// GetOrCreateWallet returns the user's wallet, creating an empty one on first use.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID int64) (*Wallet, error) {
	var w Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	w = Wallet{UserID: userID}
	if err := s.db.WithContext(ctx).Create(&w).Error; err != nil {
		if isUniqueConstraintError(err) {
			return s.GetOrCreateWallet(ctx, userID)
		}
		return nil, err
	}
	return &w, nil
}

// Balances returns the cached real and bonus balances of a user.
func (s *Service) Balances(ctx context.Context, userID int64) (int64, int64, error) {
	w, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return w.Balance, w.BonusBalance, nil
}

func (s *Service) TopUp(ctx context.Context, userID, amount int64) (*Wallet, *Transaction, error) {
	return s.credit(ctx, userID, amount, TypeTopUp, KindWallet, "top-up")
}

// GrantBonus credits non-withdrawable promotional funds.
func (s *Service) GrantBonus(ctx context.Context, userID, amount int64, note string) (*Wallet, *Transaction, error) {
	return s.credit(ctx, userID, amount, TypeBonusGrant, KindBonus, note)
}

func (s *Service) credit(ctx context.Context, userID, amount int64, typ TransactionType, kind BalanceKind, note string) (*Wallet, *Transaction, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	var (
		w       *Wallet
		entries []Transaction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = lockWallet(tx, userID)
		if err != nil {
			return err
		}
		entries, err = s.appendMoves(tx, w, nil, note, []move{{typ: typ, kind: kind, delta: amount}})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.notify(ctx, userID, 0, string(typ))
	return w, &entries[0], nil
}

// SettleInTx deducts up to amountDue from the user's balances, bonus first,
// inside the caller's transaction. It fails without moving anything when
// the covered amount would be below minimum.
func (s *Service) SettleInTx(tx *gorm.DB, userID, bookingID, amountDue, minimum int64) (Settlement, error) {
	if amountDue < 0 || minimum < 0 || minimum > amountDue {
		return Settlement{}, ErrInvalidAmount
	}

	w, err := lockWallet(tx, userID)
	if err != nil {
		return Settlement{}, err
	}

	plan := PlanSettlement(w.Balance, w.BonusBalance, amountDue)
	if plan.Paid() < minimum {
		return Settlement{}, &InsufficientFundsError{Required: minimum, Available: plan.Paid()}
	}

	_, err = s.appendMoves(tx, w, &bookingID, fmt.Sprintf("booking #%d", bookingID), []move{
		{typ: TypePayment, kind: KindBonus, delta: -plan.PaidFromBonus},
		{typ: TypePayment, kind: KindWallet, delta: -plan.PaidFromWallet},
	})
	if err != nil {
		return Settlement{}, err
	}
	return plan, nil
}

// RefundInTx re-credits previously deducted amounts with new refund entries.
func (s *Service) RefundInTx(tx *gorm.DB, userID, bookingID, fromWallet, fromBonus int64) ([]Transaction, error) {
	if fromWallet < 0 || fromBonus < 0 {
		return nil, ErrInvalidAmount
	}
	if fromWallet == 0 && fromBonus == 0 {
		return nil, nil
	}

	w, err := lockWallet(tx, userID)
	if err != nil {
		return nil, err
	}
	return s.appendMoves(tx, w, &bookingID, fmt.Sprintf("refund booking #%d", bookingID), []move{
		{typ: TypeRefund, kind: KindWallet, delta: fromWallet},
		{typ: TypeRefund, kind: KindBonus, delta: fromBonus},
	})
}

// NotifyChanged publishes a wallet notice after a caller-owned transaction commits.
func (s *Service) NotifyChanged(ctx context.Context, userID, bookingID int64, reason string) {
	s.notify(ctx, userID, bookingID, reason)
}

func (s *Service) ListTransactions(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var items []Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// Replay folds the user's ledger from zero balances in sequence order.
// Every entry must start where the previous one ended.
func (s *Service) Replay(ctx context.Context, userID int64) (walletBalance, bonusBalance int64, err error) {
	var entries []Transaction
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("seq ASC").Find(&entries).Error; err != nil {
		return 0, 0, err
	}
	return replay(entries)
}

func replay(entries []Transaction) (int64, int64, error) {
	var wb, bb int64
	for i, e := range entries {
		if e.Seq != int64(i+1) {
			return wb, bb, fmt.Errorf("%w: entry %s has seq %d, expected %d", ErrLedgerMismatch, e.ID, e.Seq, i+1)
		}
		if e.WalletBefore != wb || e.BonusBefore != bb {
			return wb, bb, fmt.Errorf("%w: entry %d starts at (%d,%d), ledger is at (%d,%d)",
				ErrLedgerMismatch, e.Seq, e.WalletBefore, e.BonusBefore, wb, bb)
		}

		delta := e.Amount
		if !e.Type.IsCredit() {
			delta = -delta
		}
		switch e.Kind {
		case KindWallet:
			wb += delta
		case KindBonus:
			bb += delta
		default:
			return wb, bb, fmt.Errorf("%w: entry %d has unknown balance %q", ErrLedgerMismatch, e.Seq, e.Kind)
		}

		if e.WalletAfter != wb || e.BonusAfter != bb {
			return wb, bb, fmt.Errorf("%w: entry %d ends at (%d,%d), replay gives (%d,%d)",
				ErrLedgerMismatch, e.Seq, e.WalletAfter, e.BonusAfter, wb, bb)
		}
	}
	return wb, bb, nil
}

type Reconciliation struct {
	UserID        int64 `json:"user_id"`
	WalletBalance int64 `json:"wallet_balance"`
	BonusBalance  int64 `json:"bonus_balance"`
	LedgerWallet  int64 `json:"ledger_wallet_balance"`
	LedgerBonus   int64 `json:"ledger_bonus_balance"`
	Entries       int64 `json:"entries"`
	Consistent    bool  `json:"consistent"`
}

// Reconcile compares the cached balances with a replay of the ledger.
func (s *Service) Reconcile(ctx context.Context, userID int64) (*Reconciliation, error) {
	w, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	lw, lb, err := s.Replay(ctx, userID)
	if err != nil {
		return nil, err
	}

	r := &Reconciliation{
		UserID:        userID,
		WalletBalance: w.Balance,
		BonusBalance:  w.BonusBalance,
		LedgerWallet:  lw,
		LedgerBonus:   lb,
		Entries:       w.Version,
		Consistent:    lw == w.Balance && lb == w.BonusBalance,
	}
	if !r.Consistent {
		s.log.Warn("wallet cache drifted from ledger",
			"user_id", userID, "wallet", w.Balance, "bonus", w.BonusBalance, "ledger_wallet", lw, "ledger_bonus", lb)
	}
	return r, nil
}

type move struct {
	typ   TransactionType
	kind  BalanceKind
	delta int64
}

// appendMoves writes one ledger entry per non-zero move and saves the wallet
// with a version check. w must have been loaded inside tx.
func (s *Service) appendMoves(tx *gorm.DB, w *Wallet, bookingID *int64, note string, moves []move) ([]Transaction, error) {
	expected := w.Version
	wb, bb := w.Balance, w.BonusBalance
	entries := make([]Transaction, 0, len(moves))

	for _, m := range moves {
		if m.delta == 0 {
			continue
		}
		e := Transaction{
			WalletID:     w.ID,
			Seq:          expected + int64(len(entries)) + 1,
			UserID:       w.UserID,
			Type:         m.typ,
			Kind:         m.kind,
			Amount:       abs(m.delta),
			WalletBefore: wb,
			BonusBefore:  bb,
			Status:       StatusCompleted,
			BookingID:    bookingID,
			Note:         note,
			CreatedAt:    s.now(),
		}
		switch m.kind {
		case KindWallet:
			wb += m.delta
		case KindBonus:
			bb += m.delta
		}
		if wb < 0 || bb < 0 {
			return nil, &InsufficientFundsError{Required: abs(m.delta), Available: e.WalletBefore + e.BonusBefore}
		}
		e.WalletAfter, e.BonusAfter = wb, bb
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	if err := tx.Create(&entries).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSettlementConflict
		}
		return nil, err
	}

	w.Balance, w.BonusBalance = wb, bb
	w.Version = expected + int64(len(entries))
	if err := saveWalletVersioned(tx, w, expected); err != nil {
		return nil, err
	}
	return entries, nil
}

func saveWalletVersioned(tx *gorm.DB, w *Wallet, expectedVersion int64) error {
	res := tx.Model(&Wallet{}).
		Where("id = ? AND version = ?", w.ID, expectedVersion).
		Updates(map[string]any{
			"balance":       w.Balance,
			"bonus_balance": w.BonusBalance,
			"version":       w.Version,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSettlementConflict
	}
	return nil
}

// lockWallet returns the user's wallet row locked for update, inserting an
// empty one first when the user has none. The insert skips on conflict so a
// concurrent creator never aborts the surrounding transaction.
func lockWallet(tx *gorm.DB, userID int64) (*Wallet, error) {
	var w Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&Wallet{UserID: userID}).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Service) notify(ctx context.Context, userID, bookingID int64, reason string) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       events.WalletUpdated,
		UserID:     userID,
		BookingID:  bookingID,
		Payload:    map[string]any{"reason": reason},
		OccurredAt: s.now(),
	})
	if err != nil {
		s.log.Warn("publish wallet event failed", "user_id", userID, "error", err)
	}
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
