package booking

import (
	"context"

	"gorm.io/gorm"

	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/wallet"
)

type Catalog interface {
	GetRoom(ctx context.Context, id int64) (*catalog.Room, error)
	GetService(ctx context.Context, id int64) (*catalog.Service, error)
	GetServiceByCode(ctx context.Context, code string) (*catalog.Service, error)
	GetServicesByIDs(ctx context.Context, ids []int64) (map[int64]catalog.Service, error)
}

// Wallet moves funds inside the booking's own transaction so a failed
// booking update never leaves a dangling ledger entry.
type Wallet interface {
	SettleInTx(tx *gorm.DB, userID, bookingID, amountDue, minimum int64) (wallet.Settlement, error)
	RefundInTx(tx *gorm.DB, userID, bookingID, fromWallet, fromBonus int64) ([]wallet.Transaction, error)
	NotifyChanged(ctx context.Context, userID, bookingID int64, reason string)
}
