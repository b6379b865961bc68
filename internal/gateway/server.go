package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/ledger"
	"github.com/custodix/exchain/pkg/config"
	"github.com/custodix/exchain/pkg/logger"
)

// Server 账本的 HTTP/websocket 网关。
// 网关只做来源折算与编解码，全部状态迁移语义在账本内完成：
// 携带正确管理令牌的请求折算为管理来源，其余写请求折算为
// 请求体中声明账户的签名来源（部署于可信边界之内，外层认证不在本层）。
type Server struct {
	cfg    config.NodeConfig
	ledger *ledger.Ledger
	hub    *Hub
}

// New 创建网关
func New(cfg config.NodeConfig, l *ledger.Ledger) *Server {
	return &Server{cfg: cfg, ledger: l, hub: NewHub()}
}

// Hub 返回入口消息广播中心（测试与观测使用）
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router 组装路由
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")

	accounts := api.Group("/accounts")
	accounts.POST("", s.handleRegisterAccount)
	accounts.GET("/:main", s.handleGetAccount)
	accounts.POST("/:main/proxies", s.handleAddProxy)

	pairs := api.Group("/pairs")
	pairs.POST("", s.handleRegisterPair)
	pairs.GET("/:base/:quote", s.handleGetPair)
	pairs.POST("/:base/:quote/open", s.handleOpenPair)
	pairs.POST("/:base/:quote/close", s.handleClosePair)

	api.POST("/deposits", s.handleDeposit)
	api.POST("/withdrawals", s.handleWithdraw)

	enclaves := api.Group("/enclaves")
	enclaves.POST("", s.handleRegisterEnclave)
	enclaves.POST("/insert", s.handleInsertEnclave)
	enclaves.GET("/:address", s.handleGetEnclave)

	snapshots := api.Group("/snapshots")
	snapshots.POST("", s.handleSubmitSnapshot)
	snapshots.GET("/:nonce", s.handleGetSnapshot)
	snapshots.GET("/:nonce/withdrawals", s.handleGetWithdrawals)
	snapshots.GET("/:nonce/fees", s.handleGetFees)

	api.POST("/fees/collect", s.handleCollectFees)
	api.POST("/shutdown", s.handleShutdown)
	api.GET("/state", s.handleState)

	r.GET("/ws/ingress", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})

	return r
}

// requestID 为每个请求分配 uuid 并回写响应头
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// adminOrigin 管理令牌折算为管理来源
func (s *Server) adminOrigin(c *gin.Context) domain.Origin {
	if s.cfg.AdminToken != "" && c.GetHeader("X-Admin-Token") == s.cfg.AdminToken {
		return domain.OriginRoot()
	}
	return domain.OriginNone()
}

// Run 启动网关与区块循环，ctx 取消时优雅退出
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go s.blockLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		logger.Infof("网关监听 %s", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

// blockLoop 区块循环：每个区块间隔转出入口消息并广播，
// 纪元边界改走 OnInitialize 以恢复审计日志容量。
func (s *Server) blockLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.BlockInterval)
	defer ticker.Stop()

	var block uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			block++
			s.stepBlock(block)
		}
	}
}

func (s *Server) stepBlock(block uint64) {
	epoch := s.cfg.EpochBlocks > 0 && block%s.cfg.EpochBlocks == 0

	var err error
	var drained ingressFrame
	drained.Block = block
	drained.Epoch = epoch

	if epoch {
		drained.Messages, err = s.ledger.OnInitialize(block)
	} else {
		drained.Messages, err = s.ledger.TakeIngressMessages()
	}
	if err != nil {
		logger.Errorf("区块 %d 转出入口消息失败: %v", block, err)
		return
	}
	if len(drained.Messages) > 0 || epoch {
		s.hub.Broadcast(drained)
	}
}
