package wallet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BalanceKind names one of the two balances a user holds.
type BalanceKind string

const (
	KindWallet BalanceKind = "wallet"
	KindBonus  BalanceKind = "bonus"
)

type TransactionType string

const (
	TypeTopUp      TransactionType = "top_up"
	TypeBonusGrant TransactionType = "bonus_grant"
	TypePayment    TransactionType = "payment"
	TypeRefund     TransactionType = "refund"
	TypeWithdrawal TransactionType = "withdrawal"
)

// IsCredit reports whether the type adds funds to its balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TypeTopUp, TypeBonusGrant, TypeRefund:
		return true
	default:
		return false
	}
}

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
)

// Wallet caches the two balances of a user. The ledger is authoritative;
// Version doubles as the sequence number of the last appended entry.
type Wallet struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       int64     `json:"user_id" gorm:"not null;uniqueIndex"`
	Balance      int64     `json:"wallet_balance" gorm:"not null;default:0"`
	BonusBalance int64     `json:"bonus_balance" gorm:"not null;default:0"`
	Version      int64     `json:"version" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Transaction is an append-only ledger entry touching exactly one balance.
// Both balances are recorded before and after so the ledger can be replayed.
type Transaction struct {
	ID           uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	WalletID     uuid.UUID         `json:"wallet_id" gorm:"type:uuid;not null;uniqueIndex:idx_wallet_seq"`
	Seq          int64             `json:"seq" gorm:"not null;uniqueIndex:idx_wallet_seq"`
	UserID       int64             `json:"user_id" gorm:"not null;index"`
	Type         TransactionType   `json:"type" gorm:"type:varchar(16);not null;index"`
	Kind         BalanceKind       `json:"balance" gorm:"type:varchar(8);not null"`
	Amount       int64             `json:"amount" gorm:"not null"`
	WalletBefore int64             `json:"wallet_balance_before" gorm:"not null"`
	WalletAfter  int64             `json:"wallet_balance_after" gorm:"not null"`
	BonusBefore  int64             `json:"bonus_balance_before" gorm:"not null"`
	BonusAfter   int64             `json:"bonus_balance_after" gorm:"not null"`
	Status       TransactionStatus `json:"status" gorm:"type:varchar(16);not null"`
	BookingID    *int64            `json:"booking_id,omitempty" gorm:"index"`
	Note         string            `json:"note,omitempty" gorm:"size:255"`
	CreatedAt    time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

func (Transaction) TableName() string {
	return "wallet_transactions"
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalExpired   WithdrawalStatus = "expired"
)

// Withdrawal is a request to move real funds out, confirmed by a one-time code.
type Withdrawal struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      int64            `json:"user_id" gorm:"not null;index"`
	Amount      int64            `json:"amount" gorm:"not null"`
	CodeHash    string           `json:"-" gorm:"not null"`
	Attempts    int              `json:"-" gorm:"not null;default:0"`
	Status      WithdrawalStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	ExpiresAt   time.Time        `json:"expires_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (Withdrawal) TableName() string {
	return "wallet_withdrawals"
}

func (w *Withdrawal) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Models lists the tables owned by this package, for migrations.
func Models() []any {
	return []any{&Wallet{}, &Transaction{}, &Withdrawal{}}
}
