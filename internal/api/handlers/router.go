package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/ridegazer/internal/auth"
	"github.com/langchou/ridegazer/internal/service"
	"github.com/langchou/ridegazer/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger   *zap.Logger
	datasets *service.DatasetService
	auth     *auth.Service
	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	datasets *service.DatasetService,
	authService *auth.Service,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:   logger,
		datasets: datasets,
		auth:     authService,
		wsHub:    wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// 认证
	r.POST("/token", h.Login)
	r.GET("/users/me", auth.Middleware(h.auth), h.CurrentUser)

	// 仪表盘，静态路径优先于 :ride_name
	dashboard := r.Group("/dashboard", auth.Middleware(h.auth))
	{
		dashboard.GET("/status", h.GetStatus)
		dashboard.POST("/refresh", h.TriggerRefresh)
		dashboard.GET("/rides", h.ListRides)
		dashboard.GET("/gps", h.ListGPS)
		dashboard.GET("/overview", h.GetOverview)
		dashboard.GET("/:ride_name", h.GetRide)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	_, err := h.datasets.Dataset()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ready":      err == nil,
		"ws_clients": h.wsHub.ClientCount(),
	})
}
