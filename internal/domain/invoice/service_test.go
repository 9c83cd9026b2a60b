package invoice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, actor booking.Actor, id int64) (*booking.Booking, error) {
	args := m.Called(ctx, actor, id)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockStore) GetHotel(ctx context.Context, id int64) (*catalog.Hotel, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*catalog.Hotel)
	return h, args.Error(1)
}

func (m *mockStore) GetRoom(ctx context.Context, id int64) (*catalog.Room, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*catalog.Room)
	return r, args.Error(1)
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*auth.User)
	return u, args.Error(1)
}

func TestForBooking(t *testing.T) {
	b, h, r, u := fixtures()
	actor := booking.Actor{UserID: 7}

	store := &mockStore{}
	store.On("Get", mock.Anything, actor, int64(42)).Return(b, nil)
	store.On("GetHotel", mock.Anything, int64(1)).Return(h, nil)
	store.On("GetRoom", mock.Anything, int64(3)).Return(r, nil)
	store.On("GetUser", mock.Anything, int64(7)).Return(u, nil)

	svc := NewService(store, store, store, nil)
	inv, err := svc.ForBooking(context.Background(), actor, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-000042", inv.Number)
	store.AssertExpectations(t)
}

func TestForBooking_NotInvoiceable(t *testing.T) {
	b, _, _, _ := fixtures()
	b.Status = booking.StatusConfirmed
	actor := booking.Actor{UserID: 7}

	store := &mockStore{}
	store.On("Get", mock.Anything, actor, int64(42)).Return(b, nil)

	svc := NewService(store, store, store, nil)
	_, err := svc.ForBooking(context.Background(), actor, 42)
	assert.ErrorIs(t, err, ErrNotInvoiceable)
	store.AssertNotCalled(t, "GetHotel", mock.Anything, mock.Anything)
}

func TestGetInvoice_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b, h, r, u := fixtures()
	actor := booking.Actor{UserID: 7}

	store := &mockStore{}
	store.On("Get", mock.Anything, actor, int64(42)).Return(b, nil)
	store.On("Get", mock.Anything, actor, int64(43)).Return(nil, booking.ErrForbidden)
	store.On("GetHotel", mock.Anything, int64(1)).Return(h, nil)
	store.On("GetRoom", mock.Anything, int64(3)).Return(r, nil)
	store.On("GetUser", mock.Anything, int64(7)).Return(u, nil)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		c.Set("user_id", int64(7))
		c.Next()
	})
	NewHandler(NewService(store, store, store, nil)).RegisterRoutes(v1)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/42/invoice", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"final_amount":100000`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/42/invoice?format=text", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVOICE INV-000042")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/43/invoice", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetInvoice_TextShowsIntegrityError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b, h, r, u := fixtures()
	b.Services = append(b.Services, booking.ServiceLine{Name: "Spa", Price: 70_000, Quantity: 1})
	actor := booking.Actor{UserID: 7}

	store := &mockStore{}
	store.On("Get", mock.Anything, actor, int64(42)).Return(b, nil)
	store.On("GetHotel", mock.Anything, int64(1)).Return(h, nil)
	store.On("GetRoom", mock.Anything, int64(3)).Return(r, nil)
	store.On("GetUser", mock.Anything, int64(7)).Return(u, nil)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		c.Set("user_id", int64(7))
		c.Next()
	})
	NewHandler(NewService(store, store, store, nil)).RegisterRoutes(v1)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/42/invoice", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"integrity_error"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/42/invoice?format=text", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Note:     integrity error: ")
	assert.Contains(t, rr.Body.String(), "670.000")
}
