package booking

import "fmt"

type DepositMode string

const (
	DepositNone    DepositMode = "none"
	DepositPercent DepositMode = "percent"
	DepositFixed   DepositMode = "fixed"
)

// DepositPolicy decides how much must be paid before a booking is confirmed.
type DepositPolicy struct {
	Mode  DepositMode
	Value int64
}

func NewDepositPolicy(mode string, value int64) (DepositPolicy, error) {
	p := DepositPolicy{Mode: DepositMode(mode), Value: value}
	switch p.Mode {
	case "", DepositNone:
		return DepositPolicy{Mode: DepositNone}, nil
	case DepositPercent:
		if value < 1 || value > 100 {
			return DepositPolicy{}, fmt.Errorf("deposit percent must be in 1..100, got %d", value)
		}
	case DepositFixed:
		if value <= 0 {
			return DepositPolicy{}, fmt.Errorf("fixed deposit must be positive, got %d", value)
		}
	default:
		return DepositPolicy{}, fmt.Errorf("unknown deposit mode %q", mode)
	}
	return p, nil
}

// Required returns the deposit for a booking total; 0 means none.
// Percentages round up so the deposit is never below the configured share.
func (p DepositPolicy) Required(total int64) int64 {
	if total <= 0 {
		return 0
	}
	switch p.Mode {
	case DepositPercent:
		return min((total*p.Value+99)/100, total)
	case DepositFixed:
		return min(p.Value, total)
	default:
		return 0
	}
}
