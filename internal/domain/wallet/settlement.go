package wallet

// Settlement is the split of an amount due across the two balances.
type Settlement struct {
	AmountDue      int64 `json:"amount_due"`
	PaidFromBonus  int64 `json:"paid_from_bonus"`
	PaidFromWallet int64 `json:"paid_from_wallet"`
	RemainingDue   int64 `json:"remaining_due"`
}

func (s Settlement) Paid() int64 {
	return s.PaidFromBonus + s.PaidFromWallet
}

// PlanSettlement spends bonus credit first, then real funds. Whatever neither
// covers stays in RemainingDue for the booking's payment method to collect.
func PlanSettlement(walletBalance, bonusBalance, amountDue int64) Settlement {
	if amountDue <= 0 {
		return Settlement{}
	}
	walletBalance = max(walletBalance, 0)
	bonusBalance = max(bonusBalance, 0)

	s := Settlement{AmountDue: amountDue}
	s.PaidFromBonus = min(bonusBalance, amountDue)
	s.PaidFromWallet = min(walletBalance, amountDue-s.PaidFromBonus)
	s.RemainingDue = amountDue - s.PaidFromBonus - s.PaidFromWallet
	return s
}
