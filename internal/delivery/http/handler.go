package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/decorlens/backend/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName    = "decorlens-backend"
	serviceVersion = "1.0.0"
)

// ProductSearcher runs a product search. Implemented by usecase.SearchService.
type ProductSearcher interface {
	Search(ctx context.Context, q domain.SearchQuery) []domain.Product
}

// CommentAnalyzer summarises a product's reviews. Implemented by usecase.CommentService.
type CommentAnalyzer interface {
	Analyze(ctx context.Context, productURL string) (domain.CommentReport, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher ProductSearcher
	analyzer CommentAnalyzer
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil dependency makes its endpoint answer 503.
func NewHandler(searcher ProductSearcher, analyzer CommentAnalyzer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{searcher: searcher, analyzer: analyzer, logger: logger}
}

// searchRequest is the body of POST /api/v1/products/search
type searchRequest struct {
	Query      string   `json:"query"`
	RoomStyle  string   `json:"roomStyle"`
	RoomColors []string `json:"roomColors"`
}

// searchResponse is the successful search payload
type searchResponse struct {
	Success  bool             `json:"success"`
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
	Message  string           `json:"message"`
}

// commentsRequest is the body of POST /api/v1/products/comments
type commentsRequest struct {
	ProductURL string `json:"productUrl"`
}

// commentsResponse is the successful comment analysis payload
type commentsResponse struct {
	Success bool `json:"success"`
	domain.CommentReport
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// SearchProducts handles product search requests
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Arama servisi kullanılamıyor"})
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Geçersiz istek gövdesi"})
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		_ = c.Error(fmt.Errorf("%w: empty query", domain.ErrInvalidRequest))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Arama sorgusu gerekli"})
		return
	}

	products := h.searcher.Search(c.Request.Context(), domain.SearchQuery{
		Query:      req.Query,
		RoomStyle:  strings.TrimSpace(req.RoomStyle),
		RoomColors: req.RoomColors,
	})

	c.JSON(http.StatusOK, searchResponse{
		Success:  true,
		Products: products,
		Count:    len(products),
		Message:  fmt.Sprintf("%d ürün bulundu", len(products)),
	})
}

// AnalyzeComments scrapes a product's review page and summarises it
func (h *Handler) AnalyzeComments(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Yorum analizi servisi kullanılamıyor"})
		return
	}

	var req commentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Geçersiz istek gövdesi"})
		return
	}

	req.ProductURL = strings.TrimSpace(req.ProductURL)
	if req.ProductURL == "" {
		_ = c.Error(fmt.Errorf("%w: empty product url", domain.ErrInvalidRequest))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ürün URL'si gereklidir"})
		return
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), req.ProductURL)
	switch {
	case errors.Is(err, domain.ErrInvalidProductURL):
		_ = c.Error(fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Geçersiz ürün URL'si"})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Yorumlar alınırken hata oluştu"})
		return
	}

	c.JSON(http.StatusOK, commentsResponse{Success: true, CommentReport: report})
}
