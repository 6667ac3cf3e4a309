package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

// APIKey authenticates API callers and binds them to an account.
type APIKey struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	AccountID snowflake.ID   `gorm:"column:account_id;not null;index" json:"account_id"`
	KeyHash   string         `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Scopes    pq.StringArray `gorm:"type:text[]" json:"scopes,omitempty"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// HashAPIKey derives the stored digest for a raw API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
