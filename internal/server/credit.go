package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/zenpay/zenpay/internal/ledger/domain"
	"github.com/zenpay/zenpay/pkg/db/pagination"
)

func (s *Server) AddCredit(c *gin.Context) {
	var req ledgerdomain.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.Credit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBalance(c *gin.Context) {
	customerID := strings.TrimSpace(c.Param("id"))

	balance, err := s.ledgerSvc.Balance(c.Request.Context(), ledgerdomain.BalanceRequest{
		CustomerID: customerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"customer_id": customerID,
		"balance":     balance,
	}})
}

func (s *Server) GetLedgerHistory(c *gin.Context) {
	var page pagination.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.History(c.Request.Context(), ledgerdomain.HistoryRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
		Page:       page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
