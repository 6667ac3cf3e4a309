package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	accountdomain "github.com/zenpay/zenpay/internal/account/domain"
	apikeydomain "github.com/zenpay/zenpay/internal/apikey/domain"
	"github.com/zenpay/zenpay/internal/config"
	customerdomain "github.com/zenpay/zenpay/internal/customer/domain"
	customerrepo "github.com/zenpay/zenpay/internal/customer/repository"
	customerservice "github.com/zenpay/zenpay/internal/customer/service"
	itemdomain "github.com/zenpay/zenpay/internal/item/domain"
	itemrepo "github.com/zenpay/zenpay/internal/item/repository"
	itemservice "github.com/zenpay/zenpay/internal/item/service"
	ledgerdomain "github.com/zenpay/zenpay/internal/ledger/domain"
	ledgerrepo "github.com/zenpay/zenpay/internal/ledger/repository"
	ledgerservice "github.com/zenpay/zenpay/internal/ledger/service"
	usagedomain "github.com/zenpay/zenpay/internal/usage/domain"
	usagerepo "github.com/zenpay/zenpay/internal/usage/repository"
	usageservice "github.com/zenpay/zenpay/internal/usage/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAPIKey = "zp_test_key"

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&apikeydomain.APIKey{},
		&customerdomain.Customer{},
		&itemdomain.PricedItem{},
		&ledgerdomain.LedgerEntry{},
		&usagedomain.UsageEvent{},
	))
	assert.NoError(t, db.Exec(`CREATE UNIQUE INDEX ux_usage_events_account_idempotency
		ON usage_events (account_id, idempotency_key)
		WHERE idempotency_key IS NOT NULL`).Error)

	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	now := time.Now().UTC()
	accountID := node.Generate()
	assert.NoError(t, db.Create(&accountdomain.Account{ID: accountID, Name: "Main", CreatedAt: now}).Error)
	assert.NoError(t, db.Create(&apikeydomain.APIKey{
		ID:        node.Generate(),
		AccountID: accountID,
		KeyHash:   apikeydomain.HashAPIKey(testAPIKey),
		IsActive:  true,
		CreatedAt: now,
	}).Error)

	customerRepo := customerrepo.Provide()
	itemRepo := itemrepo.Provide()

	customers := customerservice.New(customerservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: customerRepo})
	items := itemservice.New(itemservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: itemRepo})
	ledger := ledgerservice.New(ledgerservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: ledgerrepo.Provide(), CustomerRepo: customerRepo})
	usage := usageservice.New(usageservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node,
		Repo: usagerepo.Provide(), CustomerRepo: customerRepo, ItemRepo: itemRepo, Ledger: ledger,
	})

	engine := NewEngine()
	NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{},
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		CustomerSvc: customers,
		ItemSvc:     items,
		LedgerSvc:   ledger,
		UsageSvc:    usage,
	})
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	engine := setupServer(t)

	rec := doJSON(t, engine, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresKey(t *testing.T) {
	engine := setupServer(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/customers", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer wrong_key")
	rec2 := httptest.NewRecorder()
	engine.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestUsageFlowOverHTTP(t *testing.T) {
	engine := setupServer(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/customers", map[string]any{
		"customer_id": "cust_1",
		"name":        "Acme",
	}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/items", map[string]any{
		"code":       "api_call",
		"name":       "API Call",
		"unit":       "request",
		"unit_price": "0.25",
	}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/credits", map[string]any{
		"customer_id": "cust_1",
		"amount":      "10",
		"description": "initial topup",
	}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/usage", map[string]any{
		"customer_id":     "cust_1",
		"item_code":       "api_call",
		"quantity":        "4",
		"idempotency_key": "req-1",
		"deduct_credit":   true,
	}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/customers/cust_1/balance", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	var balanceResp struct {
		Data struct {
			CustomerID string `json:"customer_id"`
			Balance    string `json:"balance"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balanceResp))
	assert.Equal(t, "cust_1", balanceResp.Data.CustomerID)
	assert.Equal(t, "9", balanceResp.Data.Balance)

	rec = doJSON(t, engine, http.MethodGet, "/api/usage?customer_id=cust_1", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/customers/cust_1/ledger", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInsufficientCreditMapsTo402(t *testing.T) {
	engine := setupServer(t)

	doJSON(t, engine, http.MethodPost, "/api/customers", map[string]any{"customer_id": "cust_1"}, true)
	doJSON(t, engine, http.MethodPost, "/api/items", map[string]any{"code": "api_call", "unit_price": "0.25"}, true)

	rec := doJSON(t, engine, http.MethodPost, "/api/usage", map[string]any{
		"customer_id":   "cust_1",
		"item_code":     "api_call",
		"quantity":      "4",
		"deduct_credit": true,
	}, true)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestUnknownCustomerMapsTo404(t *testing.T) {
	engine := setupServer(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/customers/nobody", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicateItemCodeMapsTo409(t *testing.T) {
	engine := setupServer(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/items", map[string]any{"code": "api_call", "unit_price": "0.25"}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/items", map[string]any{"code": "api_call", "unit_price": "0.5"}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNegativeCreditMapsTo400(t *testing.T) {
	engine := setupServer(t)

	doJSON(t, engine, http.MethodPost, "/api/customers", map[string]any{"customer_id": "cust_1"}, true)

	rec := doJSON(t, engine, http.MethodPost, "/api/credits", map[string]any{
		"customer_id": "cust_1",
		"amount":      "-5",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
