package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/zenpay/zenpay/internal/accountctx"
	"github.com/zenpay/zenpay/internal/customer/domain"
	"github.com/zenpay/zenpay/internal/customer/repository"
	"github.com/zenpay/zenpay/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.Customer{}))

	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func testCtx(accountID int64) context.Context {
	return accountctx.WithAccountID(context.Background(), accountID)
}

func strptr(s string) *string { return &s }

func TestUpsertCreatesCustomer(t *testing.T) {
	svc, _ := setupService(t)
	ctx := testCtx(100)

	customer, err := svc.Upsert(ctx, domain.UpsertCustomerRequest{
		CustomerID: "cust_1",
		Name:       strptr("Acme"),
		Email:      strptr("billing@acme.test"),
	})
	assert.NoError(t, err)
	assert.Equal(t, "cust_1", customer.ExternalID)
	assert.Equal(t, "Acme", customer.Name)
	assert.NotZero(t, customer.ID)
}

func TestUpsertUpdatesExisting(t *testing.T) {
	svc, _ := setupService(t)
	ctx := testCtx(100)

	first, err := svc.Upsert(ctx, domain.UpsertCustomerRequest{
		CustomerID: "cust_1",
		Name:       strptr("Acme"),
	})
	assert.NoError(t, err)

	second, err := svc.Upsert(ctx, domain.UpsertCustomerRequest{
		CustomerID: "cust_1",
		Email:      strptr("new@acme.test"),
	})
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Acme", second.Name)
	assert.Equal(t, "new@acme.test", second.Email)
}

func TestUpsertConcurrentFirstWrite(t *testing.T) {
	svc, db := setupService(t)
	ctx := testCtx(100)

	// Racing first-time upserts of the same external ID must all converge
	// on one row; losing the insert race is not an error for the caller.
	const workers = 8
	var wg sync.WaitGroup
	results := make(chan domain.Customer, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			customer, err := svc.Upsert(ctx, domain.UpsertCustomerRequest{
				CustomerID: "cust_1",
				Name:       strptr("Acme"),
			})
			assert.NoError(t, err)
			results <- customer
		}()
	}
	wg.Wait()
	close(results)

	var first *domain.Customer
	for customer := range results {
		customer := customer
		if first == nil {
			first = &customer
			continue
		}
		assert.Equal(t, first.ID, customer.ID)
	}

	var count int64
	assert.NoError(t, db.Model(&domain.Customer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertRejectsEmptyCustomerID(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Upsert(testCtx(100), domain.UpsertCustomerRequest{CustomerID: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestUpsertRequiresAccount(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertCustomerRequest{CustomerID: "cust_1"})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
}

func TestGetByExternalIDNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetByExternalID(testCtx(100), domain.GetCustomerRequest{CustomerID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByExternalIDScopedToAccount(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Upsert(testCtx(100), domain.UpsertCustomerRequest{CustomerID: "cust_1"})
	assert.NoError(t, err)

	_, err = svc.GetByExternalID(testCtx(200), domain.GetCustomerRequest{CustomerID: "cust_1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPaginates(t *testing.T) {
	svc, _ := setupService(t)
	ctx := testCtx(100)

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Upsert(ctx, domain.UpsertCustomerRequest{CustomerID: id})
		assert.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListCustomerRequest{Page: pagination.Page{Limit: 2}})
	assert.NoError(t, err)
	assert.Len(t, resp.Customers, 2)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{Page: pagination.Page{Offset: 2, Limit: 2}})
	assert.NoError(t, err)
	assert.Len(t, resp.Customers, 1)
}

func TestDeleteRemovesCustomer(t *testing.T) {
	svc, _ := setupService(t)
	ctx := testCtx(100)

	_, err := svc.Upsert(ctx, domain.UpsertCustomerRequest{CustomerID: "cust_1"})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, domain.GetCustomerRequest{CustomerID: "cust_1"}))

	_, err = svc.GetByExternalID(ctx, domain.GetCustomerRequest{CustomerID: "cust_1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, domain.GetCustomerRequest{CustomerID: "cust_1"}), domain.ErrNotFound)
}
