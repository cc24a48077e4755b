package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"core-launchpad/internal/discovery"
	"core-launchpad/internal/domain"
)

const defaultFeatured = 3

func (s *Server) presaleData(c *gin.Context) {
	if s.reader == nil {
		respondError(c, http.StatusServiceUnavailable, errUnavailable.Error())
		return
	}
	pool, ok := parseAddress(c, "address")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := "presale-data:" + domain.NormalizeAddress(pool.Hex())

	if s.cache != nil {
		body, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache get", zap.String("key", key), zap.Error(err))
		} else if hit {
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}

	data, err := s.reader.PresaleData(ctx, pool)
	if err != nil {
		s.respondChainError(c, err)
		return
	}
	body, err := json.Marshal(newPresaleView(data))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "encode presale")
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, body); err != nil {
			s.logger.Warn("cache set", zap.String("key", key), zap.Error(err))
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) listPresales(c *gin.Context) {
	if s.tracker == nil {
		respondError(c, http.StatusServiceUnavailable, errUnavailable.Error())
		return
	}
	status, ok := domain.ParseStatusFilter(c.Query("status"))
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid status filter")
		return
	}
	order, ok := discovery.ParseOrder(c.Query("order"))
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid order")
		return
	}

	s.ensureFresh(c)
	entries := s.tracker.List(status, order)
	c.JSON(http.StatusOK, gin.H{
		"presales": newEntryViews(entries),
		"count":    len(entries),
		"ready":    s.tracker.Ready(),
	})
}

func (s *Server) featuredPresales(c *gin.Context) {
	if s.tracker == nil {
		respondError(c, http.StatusServiceUnavailable, errUnavailable.Error())
		return
	}
	n := defaultFeatured
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		n = v
	}
	s.ensureFresh(c)
	c.JSON(http.StatusOK, gin.H{"presales": newEntryViews(s.tracker.Featured(n))})
}

// ensureFresh re-reads a stale snapshot. A failed read still serves the
// previous snapshot.
func (s *Server) ensureFresh(c *gin.Context) {
	if _, err := s.tracker.EnsureFresh(c.Request.Context()); err != nil {
		s.logger.Warn("refresh stale presales",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
	}
}

func (s *Server) positions(c *gin.Context) {
	if s.presales == nil {
		respondError(c, http.StatusServiceUnavailable, errUnavailable.Error())
		return
	}
	user, ok := parseAddress(c, "user")
	if !ok {
		return
	}
	positions, err := s.presales.Positions(c.Request.Context(), user)
	if err != nil {
		s.respondChainError(c, err)
		return
	}
	out := make([]positionView, 0, len(positions))
	for _, p := range positions {
		out = append(out, newPositionView(p))
	}
	c.JSON(http.StatusOK, gin.H{"positions": out})
}

func (s *Server) recentActivity(c *gin.Context) {
	if s.activity == nil {
		respondError(c, http.StatusServiceUnavailable, errUnavailable.Error())
		return
	}
	pool, ok := parseAddress(c, "pool")
	if !ok {
		return
	}
	transfers, err := s.activity.ForPool(c.Request.Context(), pool, s.activityLimit)
	if err != nil {
		s.respondChainError(c, err)
		return
	}
	out := make([]transferView, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, newTransferView(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}
