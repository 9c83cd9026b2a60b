package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/wallet"
	"hotelbooking/internal/middleware"
	jwtsvc "hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/logger"
)

type capturedCodes struct {
	mu   sync.Mutex
	last string
}

func (c *capturedCodes) SendWithdrawalCode(_ context.Context, _ int64, code string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = code
	return nil
}

func (c *capturedCodes) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

type stack struct {
	server  *httptest.Server
	auth    *auth.Service
	wallet  *wallet.Service
	codes   *capturedCodes
	room    *catalog.Room
	spa     *catalog.Service
	guestID int64
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(fmt.Sprintf("file:client_%s?mode=memory&cache=shared", t.Name()), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	j := jwtsvc.New("client-test-secret", time.Hour)
	codes := &capturedCodes{}

	cat := catalog.NewService(catalog.NewRepository(db))
	ws := wallet.NewService(db, nil, codes, time.Minute, logger.Nop())
	as := auth.NewService(auth.NewUserRepository(db), j)
	bs := booking.NewService(booking.NewRepository(db), cat, ws, booking.DepositPolicy{}, nil, logger.Nop())

	hotel, err := cat.CreateHotel(ctx, catalog.CreateHotelRequest{Name: "Lotus", City: "Hoi An", Stars: 4})
	require.NoError(t, err)
	room, err := cat.CreateRoom(ctx, catalog.CreateRoomRequest{
		HotelID: hotel.ID, Name: "Deluxe", Price: 1_000_000, CapacityAdults: 2, CapacityChildren: 1,
	})
	require.NoError(t, err)
	spa, err := cat.CreateService(ctx, catalog.CreateServiceRequest{Name: "Spa", Price: 200_000})
	require.NoError(t, err)

	admin, err := as.Register(ctx, auth.RegisterRequest{Email: "admin@example.com", Password: "admin12345", Name: "Admin"})
	require.NoError(t, err)
	require.NoError(t, as.PromoteToAdmin(ctx, admin.ID))
	guest, err := as.Register(ctx, auth.RegisterRequest{Email: "guest@example.com", Password: "guest12345", Name: "Guest"})
	require.NoError(t, err)

	r := gin.New()
	v1 := r.Group("/api/v1")
	auth.NewHandler(as, ws).RegisterRoutes(v1)
	catalog.NewHandler(cat).RegisterRoutes(v1)

	protected := v1.Group("/")
	protected.Use(middleware.JWTAuth(j))
	auth.NewHandler(as, ws).RegisterProtectedRoutes(protected)
	wallet.NewHandler(ws).RegisterRoutes(protected)
	booking.NewHandler(bs).RegisterRoutes(protected)

	admins := v1.Group("/admin")
	admins.Use(middleware.JWTAuth(j), middleware.AdminOnly())
	booking.NewHandler(bs).RegisterAdminRoutes(admins)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &stack{server: srv, auth: as, wallet: ws, codes: codes, room: room, spa: spa, guestID: guest.ID}
}

func (s *stack) guestClient(t *testing.T) *Client {
	t.Helper()
	c := New(s.server.URL, nil)
	_, err := c.Login(context.Background(), "guest@example.com", "guest12345")
	require.NoError(t, err)
	return c
}

func (s *stack) form(c *Client, method booking.PaymentMethod) *BookingForm {
	f := NewBookingForm(*s.room, []catalog.Service{*s.spa})
	f.CheckIn = c.now().AddDate(0, 0, 3)
	f.CheckOut = c.now().AddDate(0, 0, 6)
	f.Adults = 2
	f.ContactName = "Guest"
	f.ContactEmail = "guest@example.com"
	f.ContactPhone = "+84901234567"
	f.PaymentMethod = method
	return f
}

func TestClient_LoginInitsSessionAndLogoutClears(t *testing.T) {
	s := newStack(t)
	c := s.guestClient(t)

	require.True(t, c.Session().SignedIn())
	assert.Equal(t, "guest@example.com", c.Session().User().Email)

	user, summary, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s.guestID, user.ID)
	require.NotNil(t, summary)
	assert.Zero(t, summary.WalletBalance)

	c.Logout()
	assert.False(t, c.Session().SignedIn())
	_, _, err = c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_CreateAndPayFromWallet(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.guestClient(t)

	_, _, err := s.wallet.TopUp(ctx, s.guestID, 4_000_000)
	require.NoError(t, err)
	_, _, err = s.wallet.GrantBonus(ctx, s.guestID, 100_000, "welcome")
	require.NoError(t, err)

	f := s.form(c, booking.MethodWallet)
	require.NoError(t, f.SetQuantity(s.spa.ID, 2))
	assert.Equal(t, int64(3_400_000), f.Quote().Total)

	created, err := c.CreateBooking(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3_400_000), created.TotalPrice)
	assert.Equal(t, booking.StatusPending, created.Status)

	paid, err := c.PayFromWallet(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, paid.Status)
	assert.Equal(t, booking.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, int64(100_000), paid.PaidFromBonus)
	assert.Equal(t, int64(3_300_000), paid.PaidFromWallet)
	assert.False(t, c.Guard().InFlight(fmt.Sprintf("booking:%d", created.ID)))

	w, err := c.Wallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(700_000), w.Balance)
	assert.Zero(t, w.BonusBalance)

	_, err = c.PayFromWallet(ctx, created.ID)
	assert.ErrorIs(t, err, ErrGuardViolation)
}

func TestClient_InsufficientFundsOffersDesignatedMethod(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.guestClient(t)

	_, _, err := s.wallet.TopUp(ctx, s.guestID, 500_000)
	require.NoError(t, err)

	created, err := c.CreateBooking(ctx, s.form(c, booking.MethodBankTransfer))
	require.NoError(t, err)

	refreshed, err := c.PayFromWallet(ctx, created.ID)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NotNil(t, refreshed)
	assert.Equal(t, booking.StatusPending, refreshed.Status)

	short, ok := ShortfallOf(err, refreshed)
	require.True(t, ok)
	assert.Equal(t, int64(3_000_000), short.Required)
	assert.Equal(t, int64(500_000), short.Available)
	assert.Equal(t, int64(2_500_000), short.Missing)
	assert.Equal(t, booking.MethodBankTransfer, short.PayWith)

	w, err := c.Wallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), w.Balance)
}

func TestClient_InvalidFormIsNeverSent(t *testing.T) {
	s := newStack(t)
	c := s.guestClient(t)

	f := s.form(c, booking.MethodCash)
	f.Adults = 5

	_, err := c.CreateBooking(context.Background(), f)
	var formErr *FormError
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "adults")

	list, err := c.MyBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_AdminLifecycleAndServiceGuard(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	guest := s.guestClient(t)

	admin := New(s.server.URL, nil)
	_, err := admin.Login(ctx, "admin@example.com", "admin12345")
	require.NoError(t, err)
	require.True(t, admin.Session().IsAdmin())

	created, err := guest.CreateBooking(ctx, s.form(guest, booking.MethodCash))
	require.NoError(t, err)

	_, err = guest.Approve(ctx, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = admin.Approve(ctx, created.ID)
	require.NoError(t, err)

	b, err := admin.AddService(ctx, created.ID, s.spa.ID, 1)
	assert.ErrorIs(t, err, ErrGuardViolation)
	require.NotNil(t, b)
	assert.Zero(t, b.ServicePrice)

	_, err = admin.CheckIn(ctx, created.ID)
	require.NoError(t, err)

	b, err = admin.AddService(ctx, created.ID, s.spa.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(400_000), b.ServicePrice)
	assert.Equal(t, int64(3_400_000), b.TotalPrice)
}

func TestClient_WithdrawalCountdown(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.guestClient(t)

	_, _, err := s.wallet.TopUp(ctx, s.guestID, 1_000_000)
	require.NoError(t, err)

	ticket, err := c.RequestWithdrawal(ctx, 300_000)
	require.NoError(t, err)
	assert.Greater(t, ticket.Remaining(time.Now()), time.Duration(0))

	expired := *ticket
	expired.ExpiresAt = time.Now().Add(-time.Second)
	_, err = c.ConfirmWithdrawal(ctx, expired, s.codes.Last())
	assert.ErrorIs(t, err, ErrCodeExpired)

	w, err := c.ConfirmWithdrawal(ctx, *ticket, s.codes.Last())
	require.NoError(t, err)
	assert.Equal(t, int64(700_000), w.Balance)
}
