package billingsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zenpay/zenpay/internal/billingsync/domain"
	customerdomain "github.com/zenpay/zenpay/internal/customer/domain"
	customerrepo "github.com/zenpay/zenpay/internal/customer/repository"
	usagedomain "github.com/zenpay/zenpay/internal/usage/domain"
	usagerepo "github.com/zenpay/zenpay/internal/usage/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) Report(ctx context.Context, req domain.ReportRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type workerFixture struct {
	worker   *Worker
	reporter *mockReporter
	db       *gorm.DB
	node     *snowflake.Node
}

func setupWorker(t *testing.T) *workerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&customerdomain.Customer{}, &usagedomain.UsageEvent{}))

	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	reporter := &mockReporter{}
	worker := NewWorker(Params{
		DB:           db,
		Log:          zap.NewNop(),
		UsageRepo:    usagerepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		Reporter:     reporter,
		Config:       Config{BatchSize: 10, RetryAfter: time.Minute},
	})
	return &workerFixture{worker: worker, reporter: reporter, db: db, node: node}
}

func (f *workerFixture) seedEvent(t *testing.T, status string, updatedAt time.Time) usagedomain.UsageEvent {
	t.Helper()

	customer := customerdomain.Customer{
		ID:         f.node.Generate(),
		AccountID:  100,
		ExternalID: "cust_1",
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
	assert.NoError(t, f.db.Where("external_id = ?", "cust_1").FirstOrCreate(&customer).Error)

	event := usagedomain.UsageEvent{
		ID:              f.node.Generate(),
		AccountID:       100,
		CustomerID:      customer.ID,
		ItemCode:        "api_call",
		Quantity:        decimal.RequireFromString("4"),
		UnitPrice:       decimal.RequireFromString("0.25"),
		Cost:            decimal.RequireFromString("1"),
		ReportingStatus: status,
		RecordedAt:      updatedAt,
		CreatedAt:       updatedAt,
		UpdatedAt:       updatedAt,
	}
	assert.NoError(t, f.db.Create(&event).Error)
	return event
}

func (f *workerFixture) status(t *testing.T, id snowflake.ID) string {
	t.Helper()
	var event usagedomain.UsageEvent
	assert.NoError(t, f.db.First(&event, "id = ?", id).Error)
	return event.ReportingStatus
}

func TestRunOnceReportsAndMarks(t *testing.T) {
	f := setupWorker(t)
	event := f.seedEvent(t, usagedomain.StatusUnreported, time.Now().UTC())

	f.reporter.On("Report", mock.Anything, mock.MatchedBy(func(req domain.ReportRequest) bool {
		return req.EventID == event.ID.String() && req.CustomerID == "cust_1" && req.ItemCode == "api_call"
	})).Return(nil).Once()

	reported, err := f.worker.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, reported)
	assert.Equal(t, usagedomain.StatusReported, f.status(t, event.ID))
	f.reporter.AssertExpectations(t)
}

func TestRunOnceMarksFailed(t *testing.T) {
	f := setupWorker(t)
	event := f.seedEvent(t, usagedomain.StatusUnreported, time.Now().UTC())

	f.reporter.On("Report", mock.Anything, mock.Anything).
		Return(errors.New("stripe down")).Once()

	reported, err := f.worker.RunOnce(context.Background())
	assert.NoError(t, err, "report failures never surface as run errors")
	assert.Equal(t, 0, reported)
	assert.Equal(t, usagedomain.StatusReportFailed, f.status(t, event.ID))
	f.reporter.AssertExpectations(t)
}

func TestRunOnceRetriesStaleFailures(t *testing.T) {
	f := setupWorker(t)
	stale := f.seedEvent(t, usagedomain.StatusReportFailed, time.Now().UTC().Add(-time.Hour))

	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	reported, err := f.worker.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, reported)
	assert.Equal(t, usagedomain.StatusReported, f.status(t, stale.ID))
	f.reporter.AssertExpectations(t)
}

func TestRunOnceSkipsRecentFailures(t *testing.T) {
	f := setupWorker(t)
	recent := f.seedEvent(t, usagedomain.StatusReportFailed, time.Now().UTC())

	reported, err := f.worker.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, reported)
	assert.Equal(t, usagedomain.StatusReportFailed, f.status(t, recent.ID))
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func TestRunOnceIgnoresReported(t *testing.T) {
	f := setupWorker(t)
	done := f.seedEvent(t, usagedomain.StatusReported, time.Now().UTC().Add(-time.Hour))

	reported, err := f.worker.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, reported)
	assert.Equal(t, usagedomain.StatusReported, f.status(t, done.ID))
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}
