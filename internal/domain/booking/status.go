package booking

type Status string

const (
	StatusPending          Status = "pending"
	StatusPendingDeposit   Status = "pending_deposit"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusConfirmed        Status = "confirmed"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
)

// AllStatuses is the closed set of lifecycle states in display order.
var AllStatuses = []Status{
	StatusPending,
	StatusPendingDeposit,
	StatusAwaitingApproval,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusPending:          {StatusPendingDeposit, StatusConfirmed, StatusCancelled},
	StatusPendingDeposit:   {StatusAwaitingApproval, StatusConfirmed, StatusCancelled},
	StatusAwaitingApproval: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:        {StatusCompleted, StatusCancelled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// GuestCancellable reports whether the guest may still cancel on their own.
func (s Status) GuestCancellable() bool {
	switch s {
	case StatusPending, StatusPendingDeposit, StatusAwaitingApproval:
		return true
	default:
		return false
	}
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

var statusLabels = map[Status]string{
	StatusPending:          "Pending",
	StatusPendingDeposit:   "Awaiting deposit",
	StatusAwaitingApproval: "Awaiting approval",
	StatusConfirmed:        "Confirmed",
	StatusCompleted:        "Completed",
	StatusCancelled:        "Cancelled",
}

var statusColors = map[Status]string{
	StatusPending:          "gray",
	StatusPendingDeposit:   "orange",
	StatusAwaitingApproval: "blue",
	StatusConfirmed:        "green",
	StatusCompleted:        "teal",
	StatusCancelled:        "red",
}

func (s Status) Label() string { return statusLabels[s] }
func (s Status) Color() string { return statusColors[s] }

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var AllPaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentRefunded}

var paymentLabels = map[PaymentStatus]string{
	PaymentPending:  "Unpaid",
	PaymentPaid:     "Paid",
	PaymentRefunded: "Refunded",
}

var paymentColors = map[PaymentStatus]string{
	PaymentPending:  "orange",
	PaymentPaid:     "green",
	PaymentRefunded: "purple",
}

func (p PaymentStatus) Label() string { return paymentLabels[p] }
func (p PaymentStatus) Color() string { return paymentColors[p] }

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodWallet       PaymentMethod = "wallet"
	MethodCash         PaymentMethod = "cash"
)

var AllPaymentMethods = []PaymentMethod{MethodBankTransfer, MethodWallet, MethodCash}

func (m PaymentMethod) Valid() bool {
	for _, v := range AllPaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}
