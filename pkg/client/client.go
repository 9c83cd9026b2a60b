// Package client is a typed Go client for the hotel booking API. It keeps
// the session in an explicit store, refuses to fire a mutating action twice,
// drops responses that arrive after navigation, and re-reads bookings and
// balances after every money-moving call.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/invoice"
	"hotelbooking/internal/domain/pricing"
	"hotelbooking/internal/domain/wallet"
)

const apiPrefix = "/api/v1"

type Client struct {
	http    *HttpClient
	session *Session
	guard   *Guard
	nav     *Navigator
	now     func() time.Time
}

func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		http:    NewHttpClient(baseURL, session.Token),
		session: session,
		guard:   NewGuard(),
		nav:     NewNavigator(),
		now:     time.Now,
	}
}

func (c *Client) Session() *Session     { return c.session }
func (c *Client) Guard() *Guard         { return c.guard }
func (c *Client) Navigator() *Navigator { return c.nav }
func (c *Client) HTTP() *HttpClient     { return c.http }
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// WalletSummary is the server-confirmed pair of balances.
type WalletSummary struct {
	WalletBalance int64 `json:"wallet_balance"`
	BonusBalance  int64 `json:"bonus_balance"`
}

// Shortfall tells the guest what is still due and how to pay it.
type Shortfall struct {
	Required  int64
	Available int64
	Missing   int64
	PayWith   booking.PaymentMethod
}

// ShortfallOf extracts the remaining-due offer from an INSUFFICIENT_FUNDS error.
func ShortfallOf(err error, b *booking.View) (Shortfall, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !errors.Is(apiErr, ErrInsufficientFunds) {
		return Shortfall{}, false
	}
	s := Shortfall{
		Required:  apiErr.amount("required"),
		Available: apiErr.amount("available"),
		Missing:   apiErr.amount("shortfall"),
		PayWith:   booking.MethodBankTransfer,
	}
	if b != nil && b.Booking != nil && b.PaymentMethod != booking.MethodWallet && b.PaymentMethod != "" {
		s.PayWith = b.PaymentMethod
	}
	return s, true
}

// ---- auth ----

func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error) {
	var out struct {
		User *auth.User `json:"user"`
	}
	if err := c.http.call(ctx, http.MethodPost, apiPrefix+"/auth/register", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login stores the token and user in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.User, error) {
	var out struct {
		User   *auth.User `json:"user"`
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	err := c.http.call(ctx, http.MethodPost, apiPrefix+"/auth/login", auth.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.session.Init(out.Tokens.AccessToken, out.User)
	return out.User, nil
}

// Logout clears the session and abandons the current screen's requests.
func (c *Client) Logout() {
	c.session.Clear()
	c.nav.Navigate(context.Background())
}

func (c *Client) Me(ctx context.Context) (*auth.User, *WalletSummary, error) {
	var out struct {
		User   *auth.User     `json:"user"`
		Wallet *WalletSummary `json:"wallet"`
	}
	if err := c.http.call(ctx, http.MethodGet, apiPrefix+"/users/me", nil, &out); err != nil {
		return nil, nil, err
	}
	return out.User, out.Wallet, nil
}

// ---- catalog ----

func (c *Client) Hotels(ctx context.Context, city string) ([]catalog.Hotel, error) {
	path := apiPrefix + "/hotels"
	if city != "" {
		path += "?city=" + url.QueryEscape(city)
	}
	var out struct {
		Hotels []catalog.Hotel `json:"hotels"`
	}
	if err := c.http.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Hotels, nil
}

func (c *Client) Rooms(ctx context.Context, hotelID int64) ([]catalog.Room, error) {
	var out struct {
		Rooms []catalog.Room `json:"rooms"`
	}
	if err := c.http.call(ctx, http.MethodGet, fmt.Sprintf("%s/hotels/%d/rooms", apiPrefix, hotelID), nil, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

func (c *Client) Services(ctx context.Context) ([]catalog.Service, error) {
	var out struct {
		Services []catalog.Service `json:"services"`
	}
	if err := c.http.call(ctx, http.MethodGet, apiPrefix+"/services", nil, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

// ServerQuote asks the API to price a stay with current catalog prices.
func (c *Client) ServerQuote(ctx context.Context, req catalog.QuoteRequest) (pricing.Quote, error) {
	var out struct {
		Quote pricing.Quote `json:"quote"`
	}
	if err := c.http.call(ctx, http.MethodPost, apiPrefix+"/quote", req, &out); err != nil {
		return pricing.Quote{}, err
	}
	return out.Quote, nil
}

// ---- bookings ----

// CreateBooking validates locally first; an invalid form is never sent.
func (c *Client) CreateBooking(ctx context.Context, form *BookingForm) (*booking.View, error) {
	if fields := form.Validate(c.now()); fields != nil {
		return nil, &FormError{Fields: fields}
	}
	res := Execute(ctx, c.guard, Command[*booking.View]{
		Name: "create-booking",
		Key:  "create-booking",
		Run: func(ctx context.Context) (*booking.View, error) {
			return c.bookingCall(ctx, http.MethodPost, apiPrefix+"/bookings", form.Request())
		},
	})
	return res.Value, res.Err
}

func (c *Client) Booking(ctx context.Context, id int64) (*booking.View, error) {
	return c.bookingCall(ctx, http.MethodGet, bookingPath(id, ""), nil)
}

func (c *Client) MyBookings(ctx context.Context) ([]booking.View, error) {
	var out struct {
		Bookings []booking.View `json:"bookings"`
	}
	if err := c.http.call(ctx, http.MethodGet, apiPrefix+"/users/me/bookings", nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

// PayFromWallet settles the booking from bonus then wallet. On any outcome
// the booking is re-read; on INSUFFICIENT_FUNDS use ShortfallOf with the
// returned booking to offer the designated method for the rest.
func (c *Client) PayFromWallet(ctx context.Context, id int64) (*booking.View, error) {
	return c.mutateBooking(ctx, "pay", id, http.MethodPost, bookingPath(id, "/pay-wallet"), nil)
}

func (c *Client) SubmitDepositProof(ctx context.Context, id int64, reference string) (*booking.View, error) {
	return c.mutateBooking(ctx, "deposit", id, http.MethodPost, bookingPath(id, "/deposit-proof"), booking.DepositProofRequest{Reference: reference})
}

func (c *Client) CancelBooking(ctx context.Context, id int64, reason string) (*booking.View, error) {
	return c.mutateBooking(ctx, "cancel", id, http.MethodPost, bookingPath(id, "/cancel"), booking.CancelRequest{Reason: reason})
}

func (c *Client) Invoice(ctx context.Context, id int64) (*invoice.Invoice, string, error) {
	var out struct {
		Invoice        *invoice.Invoice `json:"invoice"`
		IntegrityError string           `json:"integrity_error"`
	}
	if err := c.http.call(ctx, http.MethodGet, bookingPath(id, "/invoice"), nil, &out); err != nil {
		return nil, "", err
	}
	return out.Invoice, out.IntegrityError, nil
}

// ---- admin ----

func (c *Client) Approve(ctx context.Context, id int64) (*booking.View, error) {
	return c.mutateBooking(ctx, "approve", id, http.MethodPatch, adminBookingPath(id, "/approve"), nil)
}

func (c *Client) CheckIn(ctx context.Context, id int64) (*booking.View, error) {
	return c.mutateBooking(ctx, "check-in", id, http.MethodPatch, adminBookingPath(id, "/check-in"), nil)
}

func (c *Client) Checkout(ctx context.Context, id int64) (*booking.View, error) {
	return c.mutateBooking(ctx, "check-out", id, http.MethodPatch, adminBookingPath(id, "/check-out"), nil)
}

func (c *Client) MarkPaid(ctx context.Context, id int64) (*booking.View, error) {
	return c.mutateBooking(ctx, "mark-paid", id, http.MethodPatch, adminBookingPath(id, "/mark-paid"), nil)
}

func (c *Client) AddService(ctx context.Context, id, serviceID int64, qty int) (*booking.View, error) {
	return c.mutateBooking(ctx, "add-service", id, http.MethodPost, adminBookingPath(id, "/services"),
		booking.AddServiceRequest{ServiceID: serviceID, Quantity: qty})
}

func (c *Client) ScanService(ctx context.Context, id int64, code string, qty int) (*booking.View, error) {
	return c.mutateBooking(ctx, "add-service", id, http.MethodPost, adminBookingPath(id, "/scan"),
		booking.ScanRequest{Code: code, Quantity: qty})
}

// ---- wallet ----

func (c *Client) Wallet(ctx context.Context) (*wallet.Wallet, error) {
	var out struct {
		Wallet *wallet.Wallet `json:"wallet"`
	}
	if err := c.http.call(ctx, http.MethodGet, apiPrefix+"/wallets/me", nil, &out); err != nil {
		return nil, err
	}
	return out.Wallet, nil
}

func (c *Client) Transactions(ctx context.Context, limit int) ([]wallet.Transaction, error) {
	path := apiPrefix + "/wallets/me/transactions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Transactions []wallet.Transaction `json:"transactions"`
	}
	if err := c.http.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (c *Client) TopUp(ctx context.Context, amount int64) (*wallet.Wallet, error) {
	res := Execute(ctx, c.guard, Command[*wallet.Wallet]{
		Name: "top-up",
		Key:  "wallet",
		Run: func(ctx context.Context) (*wallet.Wallet, error) {
			var out struct {
				Wallet *wallet.Wallet `json:"wallet"`
			}
			err := c.http.call(ctx, http.MethodPost, apiPrefix+"/wallets/me/top-up", map[string]int64{"amount": amount}, &out)
			return out.Wallet, err
		},
		Refresh: c.Wallet,
	})
	return res.Value, res.Err
}

// WithdrawalTicket tracks the code countdown for one withdrawal request.
type WithdrawalTicket struct {
	ID        uuid.UUID
	Amount    int64
	ExpiresAt time.Time
}

func (t WithdrawalTicket) Remaining(now time.Time) time.Duration {
	if d := t.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (t WithdrawalTicket) Expired(now time.Time) bool {
	return t.Remaining(now) == 0
}

// RequestWithdrawal asks for a verification code. Requesting again
// supersedes any earlier pending ticket.
func (c *Client) RequestWithdrawal(ctx context.Context, amount int64) (*WithdrawalTicket, error) {
	release, err := c.guard.Acquire("wallet")
	if err != nil {
		return nil, err
	}
	defer release()

	var out struct {
		Withdrawal *wallet.Withdrawal `json:"withdrawal"`
	}
	if err := c.http.call(ctx, http.MethodPost, apiPrefix+"/wallets/me/withdrawals", map[string]int64{"amount": amount}, &out); err != nil {
		return nil, err
	}
	return &WithdrawalTicket{ID: out.Withdrawal.ID, Amount: out.Withdrawal.Amount, ExpiresAt: out.Withdrawal.ExpiresAt}, nil
}

// ConfirmWithdrawal refuses expired tickets locally; the only way forward
// is a new RequestWithdrawal. The wallet is re-read after the call.
func (c *Client) ConfirmWithdrawal(ctx context.Context, ticket WithdrawalTicket, code string) (*wallet.Wallet, error) {
	if ticket.Expired(c.now()) {
		return nil, ErrCodeExpired
	}
	res := Execute(ctx, c.guard, Command[*wallet.Wallet]{
		Name: "confirm-withdrawal",
		Key:  "wallet",
		Run: func(ctx context.Context) (*wallet.Wallet, error) {
			var out struct {
				Wallet *wallet.Wallet `json:"wallet"`
			}
			path := fmt.Sprintf("%s/wallets/me/withdrawals/%s/confirm", apiPrefix, ticket.ID)
			err := c.http.call(ctx, http.MethodPost, path, map[string]string{"code": code}, &out)
			if apiErr := (*APIError)(nil); errors.As(err, &apiErr) && apiErr.Code == "CODE_EXPIRED" {
				return nil, ErrCodeExpired
			}
			return out.Wallet, err
		},
		Refresh: c.Wallet,
	})
	return res.Value, res.Err
}

// ---- helpers ----

func (c *Client) mutateBooking(ctx context.Context, action string, id int64, method, path string, body any) (*booking.View, error) {
	res := Execute(ctx, c.guard, Command[*booking.View]{
		Name: action,
		Key:  fmt.Sprintf("booking:%d", id),
		Run: func(ctx context.Context) (*booking.View, error) {
			return c.bookingCall(ctx, method, path, body)
		},
		Refresh: func(ctx context.Context) (*booking.View, error) {
			return c.Booking(ctx, id)
		},
	})
	return res.Value, res.Err
}

func (c *Client) bookingCall(ctx context.Context, method, path string, body any) (*booking.View, error) {
	var out struct {
		Booking *booking.View `json:"booking"`
	}
	if err := c.http.call(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return out.Booking, nil
}

func bookingPath(id int64, suffix string) string {
	return fmt.Sprintf("%s/bookings/%d%s", apiPrefix, id, suffix)
}

func adminBookingPath(id int64, suffix string) string {
	return fmt.Sprintf("%s/admin/bookings/%d%s", apiPrefix, id, suffix)
}
