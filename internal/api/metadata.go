package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/observability"
	"core-launchpad/internal/storage"
)

type saveMetadataRequest struct {
	ContractAddress string `json:"contractAddress"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	ImageURL        string `json:"imageUrl"`
	Description     string `json:"description"`
	Website         string `json:"website"`
	Telegram        string `json:"telegram"`
	Twitter         string `json:"twitter"`
}

// metadataRow is the stored row as returned by POST and the debug listing.
type metadataRow struct {
	ID          int64     `json:"id"`
	PoolAddress string    `json:"pool_address"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	ImageURL    *string   `json:"image_url"`
	Description *string   `json:"description"`
	Website     *string   `json:"website"`
	Telegram    *string   `json:"telegram"`
	Twitter     *string   `json:"twitter"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newMetadataRow(m *domain.TokenMetadata) metadataRow {
	return metadataRow{
		ID:          m.ID,
		PoolAddress: m.PoolAddress,
		Name:        m.Name,
		Symbol:      m.Symbol,
		ImageURL:    m.ImageURL,
		Description: m.Description,
		Website:     m.Website,
		Telegram:    m.Telegram,
		Twitter:     m.Twitter,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// metadataView is the display subset served by GET.
type metadataView struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	ImageURL    *string `json:"imageUrl"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
	Telegram    *string `json:"telegram"`
	Twitter     *string `json:"twitter"`
}

func (s *Server) saveMetadata(c *gin.Context) {
	var req saveMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ContractAddress = strings.TrimSpace(req.ContractAddress)
	req.Name = strings.TrimSpace(req.Name)
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.ContractAddress == "" || req.Name == "" || req.Symbol == "" {
		respondError(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	row, err := s.metadata.Upsert(c.Request.Context(), &domain.TokenMetadata{
		PoolAddress: domain.NormalizeAddress(req.ContractAddress),
		Name:        req.Name,
		Symbol:      req.Symbol,
		ImageURL:    domain.OptionalString(req.ImageURL),
		Description: domain.OptionalString(req.Description),
		Website:     domain.OptionalString(req.Website),
		Telegram:    domain.OptionalString(req.Telegram),
		Twitter:     domain.OptionalString(req.Twitter),
	})
	if errors.Is(err, storage.ErrInvalidInput) {
		respondError(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	observability.RecordMetadataUpsert(err)
	if err != nil {
		s.logger.Error("save metadata",
			zap.String("request_id", getRequestID(c)),
			zap.String("pool", req.ContractAddress),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to save metadata")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": newMetadataRow(row)})
}

func (s *Server) getMetadata(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Query("debug") == "true" {
		rows, err := s.metadata.List(ctx)
		if err != nil {
			s.logger.Error("list metadata", zap.String("request_id", getRequestID(c)), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to get metadata")
			return
		}
		all := make([]metadataRow, 0, len(rows))
		for _, r := range rows {
			all = append(all, newMetadataRow(r))
		}
		c.JSON(http.StatusOK, gin.H{"debug": true, "allMetadata": all, "count": len(all)})
		return
	}

	address := c.Query("address")
	if address == "" {
		respondError(c, http.StatusBadRequest, "Contract address required")
		return
	}

	m, matched, err := metadataLookup(ctx, s.metadata, address)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		observability.RecordMetadataLookup("miss")
		respondError(c, http.StatusNotFound, "Metadata not found")
		return
	case err != nil:
		observability.RecordMetadataLookup("error")
		s.logger.Error("get metadata",
			zap.String("request_id", getRequestID(c)),
			zap.String("pool", address),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to get metadata")
		return
	}
	observability.RecordMetadataLookup(matched)

	c.JSON(http.StatusOK, metadataView{
		Name:        m.Name,
		Symbol:      m.Symbol,
		ImageURL:    m.ImageURL,
		Description: m.Description,
		Website:     m.Website,
		Telegram:    m.Telegram,
		Twitter:     m.Twitter,
	})
}

// metadataLookup tries the address as given, then lowercased, and reports
// which form matched. Rows written before addresses were normalized may still
// be stored mixed-case.
func metadataLookup(ctx context.Context, store storage.TokenMetadataStore, address string) (*domain.TokenMetadata, string, error) {
	m, err := store.GetByAddress(ctx, address)
	if err == nil {
		return m, "exact", nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", err
	}
	lower := domain.NormalizeAddress(address)
	if lower == address {
		return nil, "", err
	}
	m, err = store.GetByAddress(ctx, lower)
	if err != nil {
		return nil, "", err
	}
	return m, "lowercase", nil
}
