package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/ridegazer/internal/service"
	"github.com/langchou/ridegazer/internal/state"
	"github.com/langchou/ridegazer/internal/telemetry"
)

// dataset 获取当前数据集，未就绪时写入 503
func (h *Handler) dataset(c *gin.Context) (*telemetry.Dataset, bool) {
	ds, err := h.datasets.Dataset()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrNotReady.Error()})
		return nil, false
	}
	return ds, true
}

// ListRides 骑行列表，数据集未就绪时使用快照存储中的汇总
// GET /dashboard/rides?q=&sort=scenes|samples|duration|distance&order=asc|desc
func (h *Handler) ListRides(c *gin.Context) {
	summaries, err := h.datasets.RideSummaries(c.Request.Context())
	if errors.Is(err, service.ErrNotReady) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrNotReady.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load ride summaries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rides"})
		return
	}

	rides, err := telemetry.FilterSummaries(summaries, c.Query("q"), c.Query("sort"), c.Query("order"))
	if errors.Is(err, telemetry.ErrInvalidSort) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to list rides", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rides"})
		return
	}

	c.JSON(http.StatusOK, rides)
}

// ListGPS 全部有效 GPS 点（热力图）
func (h *Handler) ListGPS(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ds.GPSPoints())
}

// GetOverview 总览统计
func (h *Handler) GetOverview(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ds.Overview())
}

// GetRide 单次骑行详情
func (h *Handler) GetRide(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}

	name := c.Param("ride_name")
	detail, err := ds.RideDetail(name)
	if errors.Is(err, telemetry.ErrRideNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Ride %s not found.", name)})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get ride", zap.String("ride", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get ride"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// TriggerRefresh 后台重新构建数据集
// POST /dashboard/refresh
func (h *Handler) TriggerRefresh(c *gin.Context) {
	runID, err := h.datasets.TriggerRefresh()
	if errors.Is(err, state.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to trigger refresh", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger refresh"})
		return
	}

	h.logger.Info("Refresh triggered via API", zap.String("run_id", runID))
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Refresh started",
		"run_id":  runID,
	})
}

// GetStatus 刷新状态及最近的刷新记录
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.datasets.Status(c.Request.Context()))
}
