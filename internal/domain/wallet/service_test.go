package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"hotelbooking/internal/domain/events"
	"hotelbooking/internal/pkg/logger"
)

type capturedCode struct {
	userID    int64
	code      string
	expiresAt time.Time
}

type recordingSender struct {
	mu    sync.Mutex
	codes []capturedCode
}

func (s *recordingSender) SendWithdrawalCode(_ context.Context, userID int64, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, capturedCode{userID: userID, code: code, expiresAt: expiresAt})
	return nil
}

func (s *recordingSender) last() capturedCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[len(s.codes)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func setupTestService(t *testing.T) (*Service, *recordingSender, *recordingPublisher) {
	t.Helper()
	sender := &recordingSender{}
	pub := &recordingPublisher{}
	return NewService(openTestDB(t), pub, sender, time.Minute, logger.Nop()), sender, pub
}

func fund(t *testing.T, svc *Service, userID, wallet, bonus int64) {
	t.Helper()
	ctx := context.Background()
	if wallet > 0 {
		_, _, err := svc.TopUp(ctx, userID, wallet)
		require.NoError(t, err)
	}
	if bonus > 0 {
		_, _, err := svc.GrantBonus(ctx, userID, bonus, "welcome")
		require.NoError(t, err)
	}
}

func TestGetOrCreateWallet_CreatesOnce(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	w, err := svc.GetOrCreateWallet(ctx, 1001)
	require.NoError(t, err)
	assert.Zero(t, w.Balance)
	assert.Zero(t, w.BonusBalance)

	again, err := svc.GetOrCreateWallet(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
}

func TestLockWallet_CreatesMissingRowInsideTx(t *testing.T) {
	db := openTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		w, err := lockWallet(tx, 1002)
		require.NoError(t, err)
		assert.Equal(t, int64(1002), w.UserID)

		again, err := lockWallet(tx, 1002)
		require.NoError(t, err)
		assert.Equal(t, w.ID, again.ID)

		w.Balance = 10
		w.Version = 1
		return saveWalletVersioned(tx, w, 0)
	})
	require.NoError(t, err)

	var rows []Wallet
	require.NoError(t, db.Where("user_id = ?", 1002).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0].Balance)
}

func TestTopUpAndGrantBonus(t *testing.T) {
	svc, _, pub := setupTestService(t)
	ctx := context.Background()

	w, tx, err := svc.TopUp(ctx, 7, 250_000)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), w.Balance)
	assert.Equal(t, TypeTopUp, tx.Type)
	assert.Equal(t, KindWallet, tx.Kind)
	assert.Equal(t, int64(1), tx.Seq)

	w, tx, err = svc.GrantBonus(ctx, 7, 40_000, "spring promo")
	require.NoError(t, err)
	assert.Equal(t, int64(40_000), w.BonusBalance)
	assert.Equal(t, int64(250_000), tx.WalletBefore)
	assert.Equal(t, int64(250_000), tx.WalletAfter)
	assert.Equal(t, int64(0), tx.BonusBefore)
	assert.Equal(t, int64(40_000), tx.BonusAfter)
	assert.Equal(t, int64(2), w.Version)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.WalletUpdated, pub.events[0].Type)

	_, _, err = svc.TopUp(ctx, 7, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSettleInTx_BonusFirstAndLedger(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 42, 1_000_000, 100_000)

	var plan Settlement
	err := svc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		plan, err = svc.SettleInTx(tx, 42, 9, 500_000, 500_000)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), plan.PaidFromBonus)
	assert.Equal(t, int64(400_000), plan.PaidFromWallet)
	assert.Zero(t, plan.RemainingDue)

	wallet, bonus, err := svc.Balances(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(600_000), wallet)
	assert.Zero(t, bonus)

	items, err := svc.ListTransactions(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, items, 4)
	// newest first: wallet payment, then bonus payment
	assert.Equal(t, TypePayment, items[0].Type)
	assert.Equal(t, KindWallet, items[0].Kind)
	assert.Equal(t, int64(400_000), items[0].Amount)
	assert.Equal(t, KindBonus, items[1].Kind)
	assert.Equal(t, int64(100_000), items[1].Amount)
	require.NotNil(t, items[0].BookingID)
	assert.Equal(t, int64(9), *items[0].BookingID)
}

func TestSettleInTx_BelowMinimumMovesNothing(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 5, 100_000, 50_000)

	err := svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.SettleInTx(tx, 5, 1, 400_000, 200_000)
		return err
	})
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(50_000), insufficient.Shortfall())

	wallet, bonus, err := svc.Balances(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), wallet)
	assert.Equal(t, int64(50_000), bonus)
}

func TestSettleInTx_PartialWhenMinimumAllows(t *testing.T) {
	svc, _, _ := setupTestService(t)
	fund(t, svc, 6, 100_000, 0)

	var plan Settlement
	err := svc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		plan, err = svc.SettleInTx(tx, 6, 2, 300_000, 0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), plan.PaidFromWallet)
	assert.Equal(t, int64(200_000), plan.RemainingDue)
}

func TestRefundInTx_AppendsTwoRefundEntries(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 11, 1_000_000, 100_000)

	require.NoError(t, svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.SettleInTx(tx, 11, 3, 500_000, 500_000)
		return err
	}))

	var refunds []Transaction
	require.NoError(t, svc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		refunds, err = svc.RefundInTx(tx, 11, 3, 400_000, 100_000)
		return err
	}))
	require.Len(t, refunds, 2)
	for _, r := range refunds {
		assert.Equal(t, TypeRefund, r.Type)
	}
	assert.Equal(t, KindWallet, refunds[0].Kind)
	assert.Equal(t, int64(400_000), refunds[0].Amount)
	assert.Equal(t, KindBonus, refunds[1].Kind)
	assert.Equal(t, int64(100_000), refunds[1].Amount)

	wallet, bonus, err := svc.Balances(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), wallet)
	assert.Equal(t, int64(100_000), bonus)

	var payments int64
	require.NoError(t, svc.db.Model(&Transaction{}).Where("user_id = ? AND type = ?", 11, TypePayment).Count(&payments).Error)
	assert.Equal(t, int64(2), payments)
}

func TestReplayMatchesCachedBalances(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 21, 700_000, 30_000)

	require.NoError(t, svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.SettleInTx(tx, 21, 4, 100_000, 100_000)
		return err
	}))
	require.NoError(t, svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.RefundInTx(tx, 21, 4, 70_000, 30_000)
		return err
	}))
	_, _, err := svc.TopUp(ctx, 21, 5_000)
	require.NoError(t, err)

	wallet, bonus, err := svc.Replay(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, int64(705_000), wallet)
	assert.Equal(t, int64(30_000), bonus)

	r, err := svc.Reconcile(ctx, 21)
	require.NoError(t, err)
	assert.True(t, r.Consistent)
	assert.Equal(t, int64(7), r.Entries)
}

func TestReconcile_DetectsDrift(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 31, 100_000, 0)

	require.NoError(t, svc.db.Model(&Wallet{}).Where("user_id = ?", 31).Update("balance", 999_999).Error)

	r, err := svc.Reconcile(ctx, 31)
	require.NoError(t, err)
	assert.False(t, r.Consistent)
	assert.Equal(t, int64(100_000), r.LedgerWallet)
	assert.Equal(t, int64(999_999), r.WalletBalance)
}

func TestReplay_RejectsBrokenChain(t *testing.T) {
	entries := []Transaction{
		{Seq: 1, Type: TypeTopUp, Kind: KindWallet, Amount: 100, WalletAfter: 100},
		{Seq: 2, Type: TypePayment, Kind: KindWallet, Amount: 50, WalletBefore: 90, WalletAfter: 40},
	}
	_, _, err := replay(entries)
	assert.ErrorIs(t, err, ErrLedgerMismatch)
}

func TestSaveWalletVersioned_StaleVersionConflicts(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 51, 10_000, 0)

	w, err := svc.GetOrCreateWallet(ctx, 51)
	require.NoError(t, err)
	stale := w.Version

	_, _, err = svc.TopUp(ctx, 51, 1_000)
	require.NoError(t, err)

	w.Balance = 0
	w.Version = stale + 1
	err = saveWalletVersioned(svc.db, w, stale)
	assert.ErrorIs(t, err, ErrSettlementConflict)

	wallet, _, err := svc.Balances(ctx, 51)
	require.NoError(t, err)
	assert.Equal(t, int64(11_000), wallet)
}

func TestWithdrawal_ConfirmDebitsRealFunds(t *testing.T) {
	svc, sender, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 61, 300_000, 50_000)

	_, err := svc.RequestWithdrawal(ctx, 61, 320_000)
	assert.ErrorIs(t, err, ErrInsufficientFunds, "bonus is not withdrawable")

	wd, err := svc.RequestWithdrawal(ctx, 61, 200_000)
	require.NoError(t, err)
	assert.Equal(t, WithdrawalPending, wd.Status)
	code := sender.last().code
	assert.Regexp(t, `^\d{6}$`, code)

	done, w, err := svc.ConfirmWithdrawal(ctx, 61, wd.ID, code)
	require.NoError(t, err)
	assert.Equal(t, WithdrawalCompleted, done.Status)
	assert.Equal(t, int64(100_000), w.Balance)
	assert.Equal(t, int64(50_000), w.BonusBalance)

	_, _, err = svc.ConfirmWithdrawal(ctx, 61, wd.ID, code)
	assert.ErrorIs(t, err, ErrWithdrawalClosed)
}

func TestWithdrawal_ExpiredCodeCannotBeRetried(t *testing.T) {
	svc, sender, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 62, 100_000, 0)

	wd, err := svc.RequestWithdrawal(ctx, 62, 10_000)
	require.NoError(t, err)
	code := sender.last().code

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = svc.ConfirmWithdrawal(ctx, 62, wd.ID, code)
	assert.ErrorIs(t, err, ErrCodeExpired)

	svc.now = time.Now
	_, _, err = svc.ConfirmWithdrawal(ctx, 62, wd.ID, code)
	assert.ErrorIs(t, err, ErrCodeExpired)

	wallet, _, err := svc.Balances(ctx, 62)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), wallet)
}

func TestWithdrawal_WrongCodeLocksAfterMaxAttempts(t *testing.T) {
	svc, sender, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 63, 100_000, 0)

	wd, err := svc.RequestWithdrawal(ctx, 63, 10_000)
	require.NoError(t, err)
	wrong := "000000"
	if sender.last().code == wrong {
		wrong = "111111"
	}

	for i := 1; i < maxCodeAttempts; i++ {
		_, _, err = svc.ConfirmWithdrawal(ctx, 63, wd.ID, wrong)
		assert.ErrorIs(t, err, ErrInvalidCode)
	}
	_, _, err = svc.ConfirmWithdrawal(ctx, 63, wd.ID, wrong)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, _, err = svc.ConfirmWithdrawal(ctx, 63, wd.ID, sender.last().code)
	assert.True(t, errors.Is(err, ErrTooManyAttempts) || errors.Is(err, ErrCodeExpired))
}

func TestWithdrawal_NewRequestSupersedesPending(t *testing.T) {
	svc, sender, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 64, 100_000, 0)

	first, err := svc.RequestWithdrawal(ctx, 64, 10_000)
	require.NoError(t, err)
	firstCode := sender.last().code

	_, err = svc.RequestWithdrawal(ctx, 64, 20_000)
	require.NoError(t, err)

	_, _, err = svc.ConfirmWithdrawal(ctx, 64, first.ID, firstCode)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestExpireStaleWithdrawals(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	fund(t, svc, 65, 100_000, 0)

	wd, err := svc.RequestWithdrawal(ctx, 65, 10_000)
	require.NoError(t, err)

	n, err := svc.ExpireStaleWithdrawals(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	n, err = svc.ExpireStaleWithdrawals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var stored Withdrawal
	require.NoError(t, svc.db.First(&stored, "id = ?", wd.ID).Error)
	assert.Equal(t, WithdrawalExpired, stored.Status)

	wallet, _, err := svc.Balances(ctx, 65)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), wallet)
}

func TestScheduleSweep_Disabled(t *testing.T) {
	svc, _, _ := setupTestService(t)
	assert.Nil(t, svc.ScheduleSweep(context.Background(), SweepConfig{}))
}
