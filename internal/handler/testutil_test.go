package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/config"
	"github.com/novachain/backend/internal/middleware"
	"github.com/novachain/backend/internal/price"
	"github.com/novachain/backend/internal/repository"
	"github.com/novachain/backend/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdminToken = "admin-token"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	ledger   *service.BalanceLedger
	resolver *service.ModeResolver
	engine   *service.TradeEngine
	auth     *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	log := zap.NewNop()
	users := repository.NewUserRepository(db)
	ledger := service.NewBalanceLedger(repository.NewBalanceRepository(db))
	resolver := service.NewModeResolver(repository.NewModeRepository(db), users)
	// no source: every lookup uses the fallback table
	oracle := price.NewOracle(nil, nil, time.Second, time.Minute, log)
	tradeCfg := config.TradeConfig{MinDuration: 5, MaxDuration: 120, MinPercent: 5, MaxPercent: 40, MinAmount: 1}
	engine := service.NewTradeEngine(db, users, repository.NewTradeRepository(db), ledger, resolver, oracle, nil, tradeCfg, log)
	auth := service.NewAuthService(db, users, ledger, config.JWTConfig{Secret: "test-secret", ExpireHours: 1})
	wallet := service.NewWalletService(db, users, repository.NewWalletRepository(db), ledger, oracle, log)
	kyc := service.NewKYCService(users)
	admin := service.NewAdminService(users, resolver)

	r := gin.New()
	api := r.Group("/api")
	protected := api.Group("", middleware.AuthMiddleware(auth))
	adminGroup := api.Group("/admin", middleware.AdminMiddleware(testAdminToken))

	NewAuthHandler(auth).RegisterRoutes(api, protected)
	NewPriceHandler(oracle).RegisterRoutes(api)
	NewBalanceHandler(ledger, oracle).RegisterRoutes(protected)
	NewTradeHandler(engine).RegisterRoutes(protected)
	NewWalletHandler(wallet).RegisterRoutes(protected)
	NewKYCHandler(kyc).RegisterRoutes(protected)
	NewAdminHandler(admin, resolver, engine, wallet, kyc).RegisterRoutes(adminGroup)

	return &testServer{router: r, ledger: ledger, resolver: resolver, engine: engine, auth: auth}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

// signup registers username and returns its user ID and bearer header
func (s *testServer) signup(t *testing.T, username string) (uint, map[string]string) {
	t.Helper()
	user, err := s.auth.Register(&service.RegisterRequest{Username: username, Email: username + "@example.com", Password: "secret1"})
	require.NoError(t, err)
	token, err := s.auth.Login(&service.LoginRequest{Username: username, Password: "secret1"})
	require.NoError(t, err)
	return user.ID, map[string]string{"Authorization": "Bearer " + token.AccessToken}
}

func adminHeaders() map[string]string {
	return map[string]string{middleware.AdminTokenHeader: testAdminToken}
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

func itoa(id uint) string {
	return fmt.Sprint(id)
}
