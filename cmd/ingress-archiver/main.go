package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/custodix/exchain/internal/events"
)

// ingress-archiver 订阅网关的入口消息流并落入 sqlite。
// 入口消息随区块清空，不跨区块持久；需要历史记录的部署在旁路归档。

type ingressFrame struct {
	Block    uint64                  `json:"block"`
	Epoch    bool                    `json:"epoch"`
	Messages []events.IngressMessage `json:"messages"`
}

func main() {
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		wsURL  = flag.String("ws", getenv("EXCHAIN_WS", "ws://127.0.0.1:8545/ws/ingress"), "入口消息流地址")
		dbPath = flag.String("db", getenv("EXCHAIN_ARCHIVE_DB", "data/ingress.db"), "sqlite 归档文件路径")
	)
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}
	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		if err := run(ctx, *wsURL, db); err != nil && ctx.Err() == nil {
			log.Printf("连接中断: %v，5 秒后重连", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
			}
		}
	}
	fmt.Println("ingress-archiver 退出")
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ingress_messages (
	id          TEXT PRIMARY KEY,
	block       INTEGER NOT NULL,
	epoch       INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	payload     TEXT NOT NULL,
	received_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ingress_block ON ingress_messages(block);
CREATE INDEX IF NOT EXISTS idx_ingress_kind ON ingress_messages(kind);
`)
	return err
}

func run(ctx context.Context, wsURL string, db *sql.DB) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("已连接 %s", wsURL)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var frame ingressFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		if err := archive(db, &frame); err != nil {
			log.Printf("归档区块 %d 失败: %v", frame.Block, err)
		}
	}
}

// archive 单帧内的消息在一个事务中落表
func archive(db *sql.DB, frame *ingressFrame) error {
	if len(frame.Messages) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	epoch := 0
	if frame.Epoch {
		epoch = 1
	}
	for _, msg := range frame.Messages {
		payload, merr := json.Marshal(msg)
		if merr != nil {
			return merr
		}
		if _, err := tx.Exec(
			`INSERT INTO ingress_messages (id, block, epoch, kind, payload, received_at) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), frame.Block, epoch, string(msg.Kind), string(payload), now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
