package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/noodle-rush/internal/game"
	"github.com/wfunc/noodle-rush/internal/middleware"
	ws "github.com/wfunc/noodle-rush/internal/websocket"
)

// RouterConfig 路由器依赖
type RouterConfig struct {
	Service         *game.GameService
	Hub             *ws.Hub  // 可为 nil，不注册 WebSocket 路由
	DB              *gorm.DB // 可为 nil，健康检查跳过数据库
	WebSocketPath   string
	ReadBufferSize  int
	WriteBufferSize int
	OpenAPIFile     string // 为空时使用 docs/api/openapi.yaml
	Logger          *zap.Logger
}

// Router API路由器
type Router struct {
	engine    *gin.Engine
	db        *gorm.DB
	game      *GameHandler
	websocket *WebSocketHandler
	wsPath    string
	openAPI   string
	log       *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(cfg RouterConfig) *Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(log.Named("api")))
	engine.Use(middleware.Recovery(log))

	router := &Router{
		engine: engine,
		db:     cfg.DB,
		game:   NewGameHandler(cfg.Service, log.Named("game")),
		wsPath:  cfg.WebSocketPath,
		openAPI: cfg.OpenAPIFile,
		log:     log,
	}
	if cfg.Hub != nil {
		router.websocket = NewWebSocketHandler(cfg.Hub, cfg.ReadBufferSize, cfg.WriteBufferSize, log.Named("websocket"))
	}
	if router.wsPath == "" {
		router.wsPath = "/ws"
	}
	if router.openAPI == "" {
		router.openAPI = defaultOpenAPIFile
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// 接口文档
	registerOpenAPIRoutes(r.engine, r.openAPI)
	registerSwaggerRoutes(r.engine)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/state", r.game.GetState)
		v1.GET("/status", r.game.GetStatus)
		v1.GET("/forecast", r.game.GetForecast)
		v1.GET("/confidants", r.game.GetConfidants)
		v1.GET("/ranks", r.game.GetRanks)

		v1.POST("/period/start", r.game.StartPeriod)
		v1.POST("/delivery/run", r.game.RunDelivery)
		v1.POST("/delivery/return", r.game.ReturnToHub)
		v1.POST("/personal-time", r.game.SpendPersonalTime)

		employees := v1.Group("/employees")
		{
			employees.POST("/hire", r.game.Hire)
			employees.POST("/fire", r.game.Fire)
			employees.POST("/assign", r.game.Assign)
			employees.POST("/unassign", r.game.Unassign)
			employees.POST("/train", r.game.Train)
			employees.POST("/gift", r.game.Gift)
		}

		restaurants := v1.Group("/restaurants")
		{
			restaurants.POST("/purchase", r.game.PurchaseSlot)
			restaurants.POST("/sell", r.game.SellRestaurant)
			restaurants.POST("/upgrade", r.game.Upgrade)
		}

		finances := v1.Group("/finances")
		{
			finances.POST("/loan", r.game.TakeLoan)
			finances.POST("/repay", r.game.Repay)
		}

		v1.GET("/settings", r.game.GetSettings)
		v1.PUT("/settings", r.game.UpdateSettings)
		v1.POST("/game/new", r.game.NewGame)

		history := v1.Group("/history")
		{
			history.GET("/runs", r.game.GetRunHistory)
			history.GET("/summary", r.game.GetRunSummary)
		}
	}

	// WebSocket路由
	if r.websocket != nil {
		r.engine.GET(r.wsPath, r.websocket.GameWebSocket)
		r.engine.GET("/api/v1/online", r.websocket.GetOnlineCount)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "unhealthy",
				"message": "数据库连接失败",
			})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "unhealthy",
				"message": "数据库ping失败",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Handler 返回 http.Handler（供 http.Server 使用）
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
