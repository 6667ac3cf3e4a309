package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/zenpay/zenpay/internal/account/domain"
	apikeydomain "github.com/zenpay/zenpay/internal/apikey/domain"
	"gorm.io/gorm"
)

const defaultAccountName = "Main"

// EnsureDefaultAccount seeds the bootstrap account (and its API key, when
// configured) so a self-hosted instance is usable right after startup.
func EnsureDefaultAccount(db *gorm.DB, accountID int64, bootstrapAPIKey string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := ensureAccountTx(ctx, tx, node, snowflake.ID(accountID))
		if err != nil {
			return err
		}
		if bootstrapAPIKey == "" {
			return nil
		}
		return ensureAPIKeyTx(ctx, tx, node, account.ID, bootstrapAPIKey)
	})
}

func ensureAccountTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, accountID snowflake.ID) (accountdomain.Account, error) {
	var account accountdomain.Account

	query := tx.WithContext(ctx)
	if accountID != 0 {
		query = query.Where("id = ?", accountID)
	} else {
		query = query.Where("name = ?", defaultAccountName)
	}

	err := query.First(&account).Error
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return account, err
	}

	account = accountdomain.Account{
		ID:        accountID,
		Name:      defaultAccountName,
		CreatedAt: time.Now().UTC(),
	}
	if account.ID == 0 {
		account.ID = node.Generate()
	}
	if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
		return account, err
	}
	return account, nil
}

func ensureAPIKeyTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, accountID snowflake.ID, rawKey string) error {
	hash := apikeydomain.HashAPIKey(rawKey)

	var existing apikeydomain.APIKey
	err := tx.WithContext(ctx).Where("key_hash = ?", hash).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	key := apikeydomain.APIKey{
		ID:        node.Generate(),
		AccountID: accountID,
		KeyHash:   hash,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&key).Error
}
