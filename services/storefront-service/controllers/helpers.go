package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/common/logger"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

// respondError writes a service error as {"error": msg}, adding
// "retryable" when the caller may try again.
func respondError(ctx *gin.Context, err *services.ServiceError) {
	if err.StatusCode >= http.StatusInternalServerError {
		logger.Error(ctx, "Request failed", nil,
			zap.String("route", ctx.FullPath()),
			zap.Int("status", err.StatusCode),
			zap.String("message", err.Message),
		)
	}
	body := gin.H{"error": err.Message}
	if err.Retryable {
		body["retryable"] = true
	}
	ctx.JSON(err.StatusCode, body)
}

func respondBindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}

// parsePaginationParams extracts and validates pagination parameters.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 20

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("limit", "20")); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}
	return pageInt, limitInt
}

func pageMeta(page, limit int, total int64) gin.H {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": totalPages,
		"has_more":    total > int64(page*limit),
	}
}
