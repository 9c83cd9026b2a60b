package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"hotelbooking/internal/pkg/jwt"
)

func setupTestService(t *testing.T) (*Service, *jwt.Service) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	j := jwt.New("test-secret", time.Hour)
	return NewService(NewUserRepository(db), j), j
}

func TestRegisterAndLogin(t *testing.T) {
	svc, j := setupTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Email: " Guest@Example.com ", Password: "password1", Name: "Lan"})
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", u.Email)
	assert.Equal(t, RoleGuest, u.Role)
	assert.NotEqual(t, "password1", u.PasswordHash)

	res, err := svc.Login(ctx, LoginRequest{Email: "guest@example.com", Password: "password1"})
	require.NoError(t, err)

	claims, err := j.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "guest", claims.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "password1", Name: "A"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Email: "A@B.com", Password: "password2", Name: "B"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "password1", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@b.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPromoteToAdmin(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterRequest{Email: "ops@hotel.vn", Password: "password1", Name: "Ops"})
	require.NoError(t, err)

	require.NoError(t, svc.PromoteToAdmin(ctx, u.ID))
	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
}

type mockBalances struct {
	mock.Mock
}

func (m *mockBalances) Balances(ctx context.Context, userID int64) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func TestGetMe_IncludesWalletSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := setupTestService(t)
	u, err := svc.Register(context.Background(), RegisterRequest{Email: "me@b.com", Password: "password1", Name: "Me"})
	require.NoError(t, err)

	balances := &mockBalances{}
	balances.On("Balances", mock.Anything, u.ID).Return(int64(900_000), int64(50_000), nil)

	h := NewHandler(svc, balances)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", u.ID); c.Next() })
	h.RegisterProtectedRoutes(r.Group("/api/v1"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"wallet_balance":900000`)
	assert.Contains(t, rr.Body.String(), `"bonus_balance":50000`)
	assert.False(t, strings.Contains(rr.Body.String(), "password"))
	balances.AssertExpectations(t)
}
