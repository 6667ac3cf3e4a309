package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/zenpay/zenpay/internal/usage/domain"
	"github.com/zenpay/zenpay/pkg/db/pagination"
)

func (s *Server) RecordUsage(c *gin.Context) {
	var req usagedomain.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.usageSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUsage(c *gin.Context) {
	var query struct {
		pagination.Page
		CustomerID string `form:"customer_id"`
		ItemCode   string `form:"item_code"`
		From       string `form:"from"`
		To         string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}

	to, err := parseOptionalTime(query.To)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.usageSvc.List(c.Request.Context(), usagedomain.ListUsageRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		ItemCode:   strings.TrimSpace(query.ItemCode),
		From:       from,
		To:         to,
		Page:       query.Page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}
