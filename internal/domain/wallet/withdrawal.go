package wallet

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotelbooking/internal/pkg/logger"
)

const maxCodeAttempts = 5

var codeRegex = regexp.MustCompile(`^\d{6}$`)

// CodeSender delivers withdrawal confirmation codes to the user.
type CodeSender interface {
	SendWithdrawalCode(ctx context.Context, userID int64, code string, expiresAt time.Time) error
}

type DevConsoleSender struct {
	log *logger.Logger
}

func NewDevConsoleSender(log *logger.Logger) *DevConsoleSender {
	return &DevConsoleSender{log: log}
}

func (s *DevConsoleSender) SendWithdrawalCode(_ context.Context, userID int64, code string, expiresAt time.Time) error {
	s.log.Info("[DEV] withdrawal code", "user_id", userID, "code", code, "expires_at", expiresAt)
	return nil
}

// RequestWithdrawal opens a withdrawal of real funds and sends a one-time
// code. Any earlier pending request of the user is expired.
func (s *Service) RequestWithdrawal(ctx context.Context, userID, amount int64) (*Withdrawal, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	w, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w.Balance < amount {
		return nil, &InsufficientFundsError{Required: amount, Available: w.Balance}
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wd := &Withdrawal{
		UserID:    userID,
		Amount:    amount,
		CodeHash:  string(hash),
		Status:    WithdrawalPending,
		ExpiresAt: now.Add(s.codeTTL),
		CreatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Withdrawal{}).
			Where("user_id = ? AND status = ?", userID, WithdrawalPending).
			Update("status", WithdrawalExpired).Error; err != nil {
			return err
		}
		return tx.Create(wd).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.codes.SendWithdrawalCode(ctx, userID, code, wd.ExpiresAt); err != nil {
		return nil, fmt.Errorf("send withdrawal code: %w", err)
	}
	return wd, nil
}

// ConfirmWithdrawal checks the code and debits the wallet. Expired codes
// cannot be retried; the user has to request a new withdrawal.
func (s *Service) ConfirmWithdrawal(ctx context.Context, userID int64, id uuid.UUID, code string) (*Withdrawal, *Wallet, error) {
	if !codeRegex.MatchString(code) {
		return nil, nil, ErrInvalidCode
	}

	var (
		wd      Withdrawal
		w       *Wallet
		outcome error
	)
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", id, userID).
			First(&wd).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWithdrawalNotFound
			}
			return err
		}

		switch {
		case wd.Status == WithdrawalExpired:
			outcome = ErrCodeExpired
			return nil
		case wd.Status != WithdrawalPending:
			outcome = ErrWithdrawalClosed
			return nil
		case !wd.ExpiresAt.After(now):
			outcome = ErrCodeExpired
			return tx.Model(&wd).Update("status", WithdrawalExpired).Error
		case wd.Attempts >= maxCodeAttempts:
			outcome = ErrTooManyAttempts
			return tx.Model(&wd).Update("status", WithdrawalExpired).Error
		}

		if bcrypt.CompareHashAndPassword([]byte(wd.CodeHash), []byte(code)) != nil {
			wd.Attempts++
			outcome = ErrInvalidCode
			if wd.Attempts >= maxCodeAttempts {
				outcome = ErrTooManyAttempts
			}
			return tx.Model(&wd).Update("attempts", wd.Attempts).Error
		}

		var err error
		w, err = lockWallet(tx, userID)
		if err != nil {
			return err
		}
		if _, err := s.appendMoves(tx, w, nil, "withdrawal "+wd.ID.String(), []move{
			{typ: TypeWithdrawal, kind: KindWallet, delta: -wd.Amount},
		}); err != nil {
			return err
		}

		wd.Status = WithdrawalCompleted
		wd.CompletedAt = &now
		return tx.Model(&wd).Updates(map[string]any{
			"status":       wd.Status,
			"completed_at": now,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	if outcome != nil {
		return &wd, nil, outcome
	}

	s.notify(ctx, userID, 0, string(TypeWithdrawal))
	return &wd, w, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
