package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodix/exchain/internal/assets"
	"github.com/custodix/exchain/internal/attest"
	"github.com/custodix/exchain/internal/gateway"
	"github.com/custodix/exchain/internal/ledger"
	"github.com/custodix/exchain/pkg/config"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/logger"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		configPath = flag.String("config", getenv("EXCHAIN_CONFIG", ""), "yaml 配置文件路径（可选）")
		listenAddr = flag.String("listen", getenv("EXCHAIN_LISTEN", ""), "HTTP 监听地址，覆盖配置文件")
		dataDir    = flag.String("data-dir", getenv("EXCHAIN_DATA_DIR", ""), "badger 数据目录，覆盖配置文件")
		adminToken = flag.String("admin-token", getenv("EXCHAIN_ADMIN_TOKEN", ""), "管理接口令牌，覆盖配置文件")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		cfg = loaded
	}
	if *listenAddr != "" {
		cfg.Node.Listen = *listenAddr
	}
	if *dataDir != "" {
		cfg.Node.DataDir = *dataDir
	}
	if *adminToken != "" {
		cfg.Node.AdminToken = *adminToken
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.OutputFile,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	store, err := kvstore.Open(kvstore.OpenOptions{Path: cfg.Node.DataDir})
	if err != nil {
		log.Fatalf("打开数据目录失败: %v", err)
	}
	defer store.Close()

	assetLedger := assets.NewBadgerLedger(store)
	l := ledger.New(store, assetLedger, attest.NewReportVerifier(), cfg.Limits, cfg.Policy)
	srv := gateway.New(cfg.Node, l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger.Infof("exchaind 启动，托管账户 %s", l.CustodianAccount().Hex())
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("网关退出: %v", err)
	}
	logger.Info("exchaind 已停止")
}
