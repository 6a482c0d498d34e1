// Package api 暴露派生数据集的只读 HTTP 接口。
//
// 这层只做读：数据集、平台清单、分类与看板快照透传，
// 不提供任何写入或管理操作。
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/aggregate"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/api/middleware"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/config"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/platform"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server 封装只读接口所需的依赖与路由。
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    *aggregate.Engine
	directory *platform.Directory
	upstream  *upstream.Service
	router    *gin.Engine
}

// NewServer 初始化只读 HTTP 服务。
//
// 参数:
//
//	cfg: 配置对象
//	logger: 日志记录器
//	engine: 聚合引擎
//	directory: 平台目录
//	service: 上游访问层
//
// 返回值:
//
//	*Server: 初始化完成的服务实例
func NewServer(cfg *config.Config, logger *slog.Logger, engine *aggregate.Engine, directory *platform.Directory, service *upstream.Service) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		directory: directory,
		upstream:  service,
		router:    r,
	}
	s.registerRoutes()
	return s
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// registerRoutes 注册所有的只读路由。
func (s *Server) registerRoutes() {
	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/healthz", s.handleHealthz)

	v1 := s.router.Group("/api/v1")
	v1.GET("/resource-products", s.handleResourceProducts)
	v1.GET("/platforms", s.handlePlatforms)
	v1.GET("/platforms/:id/categories", s.handleCategories)
	v1.GET("/orders/recent", s.handleRecentOrders)
	v1.GET("/dashboard/snapshot", s.handleSnapshot)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleResourceProducts 返回聚合数据集；refresh=1 时强制重算。
func (s *Server) handleResourceProducts(c *gin.Context) {
	force := c.Query("refresh") == "1"

	dataset, err := s.engine.Dataset(c.Request.Context(), force)
	if err != nil {
		s.logger.Error("aggregate dataset failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "msg": "upstream unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": model.EnvelopeOK, "msg": "ok", "data": dataset})
}

// handlePlatforms 返回平台清单（失败时内部已回退为默认清单）。
func (s *Server) handlePlatforms(c *gin.Context) {
	force := c.Query("refresh") == "1"
	list := s.directory.Load(c.Request.Context(), force)
	c.JSON(http.StatusOK, gin.H{"code": model.EnvelopeOK, "msg": "ok", "data": list})
}

// handleCategories 返回单平台的分类清单。
func (s *Server) handleCategories(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "msg": "invalid platform id"})
		return
	}

	categories, err := s.upstream.ProductCategories(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("load categories failed", slog.Int("platform_id", id), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "msg": "upstream unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": model.EnvelopeOK, "msg": "ok", "data": categories})
}

// handleRecentOrders 返回最近订单（已归一化）。
func (s *Server) handleRecentOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	status, _ := strconv.Atoi(c.Query("status"))

	rows, err := s.upstream.RecentOrders(c.Request.Context(), limit, status)
	if err != nil {
		s.logger.Error("load recent orders failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "msg": "upstream unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": model.EnvelopeOK, "msg": "ok", "data": rows})
}

// handleSnapshot 透传看板快照接口。
func (s *Server) handleSnapshot(c *gin.Context) {
	platformID, _ := strconv.Atoi(c.Query("platformId"))

	resp, err := s.upstream.Snapshot(c.Request.Context(), c.Query("scope"), platformID)
	if err != nil {
		s.logger.Error("load snapshot failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "msg": "upstream unavailable"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Run 启动 HTTP 服务器并开始监听请求。
func (s *Server) Run() error {
	s.logger.Info("api server listening", slog.String("addr", s.cfg.App.HTTPAddr))
	return s.router.Run(s.cfg.App.HTTPAddr)
}
