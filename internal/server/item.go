package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	itemdomain "github.com/zenpay/zenpay/internal/item/domain"
	"github.com/zenpay/zenpay/pkg/db/pagination"
)

func (s *Server) CreateItem(c *gin.Context) {
	var req itemdomain.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.itemSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListItems(c *gin.Context) {
	var page pagination.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.itemSvc.List(c.Request.Context(), itemdomain.ListItemRequest{Page: page})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetItem(c *gin.Context) {
	resp, err := s.itemSvc.GetByCode(c.Request.Context(), itemdomain.GetItemRequest{
		Code: strings.TrimSpace(c.Param("code")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateItem(c *gin.Context) {
	var req itemdomain.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Code = strings.TrimSpace(c.Param("code"))

	resp, err := s.itemSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteItem(c *gin.Context) {
	err := s.itemSvc.Delete(c.Request.Context(), itemdomain.GetItemRequest{
		Code: strings.TrimSpace(c.Param("code")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
