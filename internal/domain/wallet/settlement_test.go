package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanSettlement(t *testing.T) {
	tests := []struct {
		name                  string
		wallet, bonus, due    int64
		fromBonus, fromWallet int64
		remaining             int64
	}{
		{"bonus first then wallet", 1_000_000, 100_000, 500_000, 100_000, 400_000, 0},
		{"bonus covers everything", 50_000, 800_000, 500_000, 500_000, 0, 0},
		{"both short", 200_000, 100_000, 500_000, 100_000, 200_000, 200_000},
		{"empty balances", 0, 0, 300_000, 0, 0, 300_000},
		{"nothing due", 1_000, 1_000, 0, 0, 0, 0},
		{"negative balances are treated as empty", -10, -20, 100, 0, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := PlanSettlement(tt.wallet, tt.bonus, tt.due)
			assert.Equal(t, tt.fromBonus, s.PaidFromBonus)
			assert.Equal(t, tt.fromWallet, s.PaidFromWallet)
			assert.Equal(t, tt.remaining, s.RemainingDue)
		})
	}
}

func TestPlanSettlement_PartsAlwaysSumToDue(t *testing.T) {
	for wallet := int64(0); wallet <= 1000; wallet += 125 {
		for bonus := int64(0); bonus <= 1000; bonus += 125 {
			for due := int64(1); due <= 2000; due += 333 {
				s := PlanSettlement(wallet, bonus, due)
				assert.Equal(t, due, s.PaidFromBonus+s.PaidFromWallet+s.RemainingDue)
				assert.LessOrEqual(t, s.PaidFromBonus, bonus)
				assert.LessOrEqual(t, s.PaidFromWallet, wallet)
				assert.GreaterOrEqual(t, s.RemainingDue, int64(0))
			}
		}
	}
}
