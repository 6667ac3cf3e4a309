package migration

import (
	"strings"

	accountdomain "github.com/zenpay/zenpay/internal/account/domain"
	apikeydomain "github.com/zenpay/zenpay/internal/apikey/domain"
	"github.com/zenpay/zenpay/internal/config"
	customerdomain "github.com/zenpay/zenpay/internal/customer/domain"
	itemdomain "github.com/zenpay/zenpay/internal/item/domain"
	ledgerdomain "github.com/zenpay/zenpay/internal/ledger/domain"
	"github.com/zenpay/zenpay/internal/seed"
	usagedomain "github.com/zenpay/zenpay/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(conn.Dialector.Name(), "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else if err := autoMigrate(conn); err != nil {
			return err
		}

		return seed.EnsureDefaultAccount(conn, cfg.DefaultAccountID, cfg.BootstrapAPIKey)
	}),
)

// autoMigrate covers the sqlite/mysql local path where the SQL migrations
// (written for postgres) do not apply.
func autoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&accountdomain.Account{},
		&apikeydomain.APIKey{},
		&customerdomain.Customer{},
		&itemdomain.PricedItem{},
		&ledgerdomain.LedgerEntry{},
		&usagedomain.UsageEvent{},
	); err != nil {
		return err
	}

	if strings.EqualFold(conn.Dialector.Name(), "mysql") {
		// MySQL unique indexes already ignore NULL duplicates, no partial
		// index needed. It also has no IF NOT EXISTS for indexes, so a rerun
		// reports a duplicate key name.
		err := conn.Exec(`CREATE UNIQUE INDEX ux_usage_events_account_idempotency
			ON usage_events (account_id, idempotency_key)`).Error
		if err != nil && strings.Contains(err.Error(), "Duplicate key name") {
			return nil
		}
		return err
	}

	return conn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_usage_events_account_idempotency
		ON usage_events (account_id, idempotency_key)
		WHERE idempotency_key IS NOT NULL`).Error
}
