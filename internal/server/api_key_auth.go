package server

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/zenpay/zenpay/internal/accountctx"
	apikeydomain "github.com/zenpay/zenpay/internal/apikey/domain"
)

// APIKeyRequired authenticates requests with a bearer API key. Account
// identity is derived solely from the api_keys table; callers cannot name an
// account themselves.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hash := apikeydomain.HashAPIKey(parts[1])
		now := time.Now().UTC()

		var record struct {
			ID        snowflake.ID `gorm:"column:id"`
			AccountID snowflake.ID `gorm:"column:account_id"`
			KeyHash   string       `gorm:"column:key_hash"`
		}

		if err := s.db.WithContext(c.Request.Context()).Raw(
			`SELECT id, account_id, key_hash
			 FROM api_keys
			 WHERE key_hash = ?
			   AND is_active = true
			   AND (expires_at IS NULL OR expires_at > ?)
			 LIMIT 1`,
			hash,
			now,
		).Scan(&record).Error; err != nil {
			AbortWithError(c, err)
			return
		}

		if record.ID == 0 || subtle.ConstantTimeCompare([]byte(record.KeyHash), []byte(hash)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := accountctx.WithAccountID(c.Request.Context(), int64(record.AccountID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
