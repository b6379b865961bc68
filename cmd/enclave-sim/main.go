package main

import (
	"context"
	"crypto/ecdsa"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/shopspring/decimal"

	"github.com/custodix/exchain/internal/attest"
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/pkg/client"
)

// enclave-sim 模拟撮合飞地：用助记词派生飞地密钥，完成远程证明注册，
// 然后按固定间隔签名并提交递增序号的快照。用于本地联调与演示，
// 不承载真实撮合状态。

func main() {
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		host       = flag.String("host", getenv("EXCHAIN_HOST", "http://127.0.0.1:8545"), "网关地址")
		adminToken = flag.String("admin-token", getenv("EXCHAIN_ADMIN_TOKEN", ""), "管理令牌（注册飞地需要）")
		mnemonic   = flag.String("mnemonic", getenv("ENCLAVE_MNEMONIC", ""), "飞地密钥助记词")
		derivePath = flag.String("path", getenv("ENCLAVE_DERIVATION_PATH", "m/44'/60'/0'/0/0"), "密钥派生路径")
		interval   = flag.Duration("interval", 15*time.Second, "快照提交间隔")
		feeStr     = flag.String("fee", "0.001", "每个快照申报的原生手续费（人类可读数量）")
	)
	flag.Parse()

	key, err := deriveKey(*mnemonic, *derivePath)
	if err != nil {
		log.Fatalf("派生飞地密钥失败: %v", err)
	}
	enclaveAddr := crypto.PubkeyToAddress(key.PublicKey)
	fmt.Printf("飞地地址: %s\n", enclaveAddr.Hex())

	fee, err := decimal.NewFromString(*feeStr)
	if err != nil {
		log.Fatalf("解析手续费失败: %v", err)
	}

	admin := client.New(*host, client.WithAdminToken(*adminToken))
	c := client.New(*host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := attest.BuildReport(key, []byte("enclave-sim"))
	if err != nil {
		log.Fatalf("构造证明报告失败: %v", err)
	}
	if err := admin.RegisterEnclave(ctx, report); err != nil {
		log.Fatalf("注册飞地失败: %v", err)
	}
	fmt.Println("飞地已注册，开始提交快照")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("enclave-sim 退出")
			return
		case <-ticker.C:
			if err := submitNext(ctx, c, key, enclaveAddr, fee); err != nil {
				log.Printf("提交快照失败: %v", err)
			}
		}
	}
}

// submitNext 查询链上序号并提交下一个快照
func submitNext(ctx context.Context, c *client.Client, key *ecdsa.PrivateKey, enclaveAddr domain.AccountID, fee decimal.Decimal) error {
	state, err := c.State(ctx)
	if err != nil {
		return err
	}
	snap := domain.EnclaveSnapshot{
		SnapshotNumber: state.SnapshotNonce + 1,
		Fees: []domain.Fees{{
			Asset:  domain.AssetNative,
			Amount: domain.ToPlanck(fee),
		}},
	}
	digest, err := domain.SnapshotDigest(&snap)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return err
	}
	if err := c.SubmitSnapshot(ctx, enclaveAddr, snap, sig); err != nil {
		return err
	}
	fmt.Printf("快照 %d 已接受\n", snap.SnapshotNumber)
	return nil
}

func deriveKey(mnemonic, derivationPath string) (*ecdsa.PrivateKey, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("mnemonic is required")
	}
	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path: %w", err)
	}
	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("derive failed: %w", err)
	}
	return w.PrivateKey(acct)
}
