package routes

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
	"github.com/IkingariSolorzano/cinepoints-be/services"
)

var jwtSecret = []byte("routes-secret")

type server struct {
	t      *testing.T
	router *gin.Engine
	sqlDB  *sql.DB
	auth   *services.AuthService
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	store := repository.New(db)
	loyalty := services.NewLoyaltyService(store, nil)
	auth := services.NewAuthService(store, jwtSecret, time.Hour)
	router := SetupRoutes(Deps{
		JWTSecret:    jwtSecret,
		Auth:         auth,
		Audit:        services.NewAuditService(store),
		Customers:    services.NewCustomerService(store, loyalty.Tiers()),
		Transactions: services.NewTransactionService(store, loyalty, nil),
		Loyalty:      loyalty,
		Dashboard:    services.NewDashboardService(store),
	})
	return &server{t: t, router: router, sqlDB: sqlDB, auth: auth}
}

func (s *server) login(role models.UserRole) string {
	s.t.Helper()
	email := fmt.Sprintf("%s-%s@cinema.test", role, uuid.NewString()[:8])
	_, err := s.auth.CreateUser(context.Background(), email, "secret1", role)
	require.NoError(s.t, err)

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Token
}

func (s *server) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndLogin(t *testing.T) {
	s := newServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "nobody@cinema.test", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	token := s.login(models.RoleViewer)
	w = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "VIEWER", decode[map[string]any](t, w)["role"])

	require.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/customers", "", nil).Code)
}

func TestRoleGating(t *testing.T) {
	s := newServer(t)
	viewer := s.login(models.RoleViewer)
	operator := s.login(models.RoleOperator)
	customer := gin.H{"name": "Budi", "phone": "0815000001"}

	require.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/customers", viewer, customer).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/customers", operator, customer).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/customers", viewer, nil).Code)

	rule := gin.H{"conversion_unit": 5000, "ticket_multiplier": 1, "combo_multiplier": 2, "app_web_bonus": 0, "points_expiry_months": 6}
	require.Equal(t, http.StatusForbidden, s.do(http.MethodPut, "/api/v1/admin/loyalty/rules", operator, rule).Code)

	admin := s.login(models.RoleAdmin)
	w := s.do(http.MethodPut, "/api/v1/admin/loyalty/rules", admin, rule)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.EqualValues(t, 5000, decode[map[string]any](t, w)["conversion_unit"])

	w = s.do(http.MethodGet, "/api/v1/admin/audit-logs?entity_type=POINT_RULE", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoyaltyErrorMapping(t *testing.T) {
	s := newServer(t)
	operator := s.login(models.RoleOperator)

	w := s.do(http.MethodPost, "/api/v1/customers", operator, gin.H{"name": "Citra", "phone": "0815000002"})
	require.Equal(t, http.StatusCreated, w.Code)
	customer := decode[models.Customer](t, w)

	w = s.do(http.MethodPost, "/api/v1/customers", operator, gin.H{"name": "Citra Again", "phone": "0815000002"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/customers/not-a-uuid", operator, nil).Code)
	require.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/customers/"+uuid.NewString(), operator, nil).Code)

	w = s.do(http.MethodPost, "/api/v1/loyalty/redeem", operator, gin.H{"customer_id": customer.ID, "points": 10})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "insufficient points")

	w = s.do(http.MethodPost, "/api/v1/loyalty/redeem", operator, gin.H{"customer_id": uuid.NewString(), "points": 10})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/loyalty/redeem-voucher", operator, gin.H{"customer_id": customer.ID, "reward_id": "NOPE"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid reward id")

	w = s.do(http.MethodPost, "/api/v1/loyalty/reward-vouchers/RV-MISSING/use", operator, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/api/v1/transactions/"+uuid.NewString()+"/confirm", operator, nil).Code)
}

func TestTransactionFlowOverHTTP(t *testing.T) {
	s := newServer(t)
	operator := s.login(models.RoleOperator)
	admin := s.login(models.RoleAdmin)

	w := s.do(http.MethodPost, "/api/v1/customers", operator, gin.H{"name": "Dewi", "phone": "0815000003"})
	require.Equal(t, http.StatusCreated, w.Code)
	customer := decode[models.Customer](t, w)

	w = s.do(http.MethodPost, "/api/v1/transactions", operator, gin.H{
		"customer_id":   customer.ID,
		"amount_gross":  120000,
		"purchase_date": time.Now().UTC().Format(time.RFC3339),
		"product_type":  "COMBO",
		"channel":       "WEB",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tx := decode[models.Transaction](t, w)

	path := "/api/v1/transactions/" + tx.ID.String()
	w = s.do(http.MethodPatch, path+"/confirm", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "already confirmed")

	w = s.do(http.MethodPatch, path+"/confirm", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "already confirmed")

	require.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, path+"/reject", operator, nil).Code)

	// 12 units * (1.5 + 0.1)
	w = s.do(http.MethodGet, "/api/v1/loyalty/ledger/"+customer.ID.String(), operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]models.PointLedger](t, w)
	require.Len(t, entries, 1)
	require.Equal(t, int64(19), entries[0].Points)

	w = s.do(http.MethodGet, "/api/v1/admin/loyalty/reconcile/"+customer.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode[map[string]any](t, w)["balanced"])

	w = s.do(http.MethodPost, "/api/v1/loyalty/redeem", operator, gin.H{"customer_id": customer.ID, "points": 19, "note": "popcorn"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/dashboard/summary", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 120000, decode[map[string]any](t, w)["net_revenue"])
}

func TestStorageFailureHidesCause(t *testing.T) {
	s := newServer(t)
	viewer := s.login(models.RoleViewer)
	require.NoError(t, s.sqlDB.Close())

	w := s.do(http.MethodGet, "/api/v1/customers", viewer, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"failed to fetch customers"}`, w.Body.String())
}
