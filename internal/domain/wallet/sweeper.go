package wallet

import (
	"context"
	"time"
)

// SweepConfig controls the background expiry of unconfirmed withdrawals.
type SweepConfig struct {
	Interval time.Duration // how often to run (default: 1m)
	Enabled  bool
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{Interval: time.Minute, Enabled: true}
}

// ExpireStaleWithdrawals closes pending withdrawals whose code has lapsed.
// No funds move: a withdrawal only debits on confirmation.
func (s *Service) ExpireStaleWithdrawals(ctx context.Context) (int64, error) {
	start := s.now()
	res := s.db.WithContext(ctx).Model(&Withdrawal{}).
		Where("status = ? AND expires_at <= ?", WithdrawalPending, start).
		Update("status", WithdrawalExpired)
	if res.Error != nil {
		s.log.Error("withdrawal sweep failed", "error", res.Error)
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("withdrawal sweep completed", "expired", res.RowsAffected, "duration", time.Since(start))
	}
	return res.RowsAffected, nil
}

// ScheduleSweep starts a background goroutine; close the returned channel
// or cancel ctx to stop it.
func (s *Service) ScheduleSweep(ctx context.Context, cfg SweepConfig) chan struct{} {
	if !cfg.Enabled {
		s.log.Info("withdrawal sweep is disabled")
		return nil
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}

	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, _ = s.ExpireStaleWithdrawals(ctx)
			case <-stopCh:
				s.log.Info("withdrawal sweep stopped")
				return
			case <-ctx.Done():
				s.log.Info("withdrawal sweep stopped (context done)")
				return
			}
		}
	}()

	s.log.Info("withdrawal sweep started", "interval", cfg.Interval)
	return stopCh
}
