package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/custodix/exchain/internal/domain"
)

// Client 网关的 Go SDK。
// 所有方法返回网关折算后的账本错误文案；非 2xx 响应统一包装为 error。
type Client struct {
	client     *resty.Client
	adminToken string
}

// Option 客户端可选配置
type Option func(*Client)

// WithAdminToken 设置管理令牌，携带令牌的请求折算为管理来源
func WithAdminToken(token string) Option {
	return func(c *Client) { c.adminToken = token }
}

// WithTimeout 覆盖默认请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.SetTimeout(d) }
}

// New 创建客户端
func New(host string, opts ...Option) *Client {
	host = strings.TrimSuffix(host, "/")
	rc := resty.New().
		SetBaseURL(host).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)

	c := &Client{client: rc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.client.R().SetContext(ctx)
	r.SetHeader("Accept", "application/json")
	if c.adminToken != "" {
		r.SetHeader("X-Admin-Token", c.adminToken)
	}
	return r
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return errors.Wrap(err, "请求失败")
	}
	if resp.IsSuccess() {
		return nil
	}
	var body errorBody
	if uerr := json.Unmarshal(resp.Body(), &body); uerr == nil && body.Error != "" {
		return errors.Errorf("网关拒绝 (%d): %s", resp.StatusCode(), body.Error)
	}
	return errors.Errorf("网关拒绝 (%d): %s", resp.StatusCode(), resp.Status())
}

// RegisterMainAccount 注册主账户
func (c *Client) RegisterMainAccount(ctx context.Context, main common.Address) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]string{"main": main.Hex()}).
		Post("/api/accounts")
	return checkResponse(resp, err)
}

// AddProxy 为主账户追加代理
func (c *Client) AddProxy(ctx context.Context, main, proxy common.Address) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]string{"proxy": proxy.Hex()}).
		Post("/api/accounts/" + main.Hex() + "/proxies")
	return checkResponse(resp, err)
}

// AccountInfo 账户查询结果
type AccountInfo struct {
	Main    string   `json:"main"`
	Proxies []string `json:"proxies"`
}

// Account 查询主账户
func (c *Client) Account(ctx context.Context, main common.Address) (*AccountInfo, error) {
	var out AccountInfo
	resp, err := c.newRequest(ctx).
		SetResult(&out).
		Get("/api/accounts/" + main.Hex())
	if cerr := checkResponse(resp, err); cerr != nil {
		return nil, cerr
	}
	return &out, nil
}

// RegisterTradingPair 注册交易对（管理）
func (c *Client) RegisterTradingPair(ctx context.Context, pair domain.TradingPair) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]interface{}{
			"base_asset":       uint64(pair.BaseAsset),
			"quote_asset":      uint64(pair.QuoteAsset),
			"min_order_size":   pair.MinOrderSize.String(),
			"max_order_size":   pair.MaxOrderSize.String(),
			"min_price":        pair.MinPrice.String(),
			"max_price":        pair.MaxPrice.String(),
			"min_trade_amount": pair.MinTradeAmount.String(),
			"max_trade_amount": pair.MaxTradeAmount.String(),
			"tick_size":        pair.TickSize.String(),
		}).
		Post("/api/pairs")
	return checkResponse(resp, err)
}

func pairPath(base, quote domain.AssetID) string {
	return "/api/pairs/" + strconv.FormatUint(uint64(base), 10) + "/" + strconv.FormatUint(uint64(quote), 10)
}

// OpenTradingPair 开放交易对（管理）
func (c *Client) OpenTradingPair(ctx context.Context, base, quote domain.AssetID) error {
	resp, err := c.newRequest(ctx).Post(pairPath(base, quote) + "/open")
	return checkResponse(resp, err)
}

// CloseTradingPair 关闭交易对（管理）
func (c *Client) CloseTradingPair(ctx context.Context, base, quote domain.AssetID) error {
	resp, err := c.newRequest(ctx).Post(pairPath(base, quote) + "/close")
	return checkResponse(resp, err)
}

// Deposit 充值
func (c *Client) Deposit(ctx context.Context, user common.Address, asset domain.AssetID, amount *big.Int) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]interface{}{
			"user":   user.Hex(),
			"asset":  uint64(asset),
			"amount": amount.String(),
		}).
		Post("/api/deposits")
	return checkResponse(resp, err)
}

// Withdraw 认领取款
func (c *Client) Withdraw(ctx context.Context, user common.Address, snapshotNonce uint64) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]interface{}{
			"user":           user.Hex(),
			"snapshot_nonce": snapshotNonce,
		}).
		Post("/api/withdrawals")
	return checkResponse(resp, err)
}

// RegisterEnclave 提交证明报告注册飞地（管理）
func (c *Client) RegisterEnclave(ctx context.Context, report []byte) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]string{"report": hex.EncodeToString(report)}).
		Post("/api/enclaves")
	return checkResponse(resp, err)
}

// SubmitSnapshot 提交签名快照
func (c *Client) SubmitSnapshot(ctx context.Context, signer common.Address, snapshot domain.EnclaveSnapshot, signature []byte) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]interface{}{
			"signer":    signer.Hex(),
			"signature": hex.EncodeToString(signature),
			"snapshot":  snapshot,
		}).
		Post("/api/snapshots")
	return checkResponse(resp, err)
}

// Snapshot 查询已接受的快照
func (c *Client) Snapshot(ctx context.Context, nonce uint64) (*domain.EnclaveSnapshot, error) {
	var out domain.EnclaveSnapshot
	resp, err := c.newRequest(ctx).
		SetResult(&out).
		Get("/api/snapshots/" + strconv.FormatUint(nonce, 10))
	if cerr := checkResponse(resp, err); cerr != nil {
		return nil, cerr
	}
	return &out, nil
}

// CollectFees 拨付手续费批次（管理）
func (c *Client) CollectFees(ctx context.Context, snapshotNonce uint64, beneficiary common.Address) error {
	resp, err := c.newRequest(ctx).
		SetBody(map[string]interface{}{
			"snapshot_nonce": snapshotNonce,
			"beneficiary":    beneficiary.Hex(),
		}).
		Post("/api/fees/collect")
	return checkResponse(resp, err)
}

// Shutdown 紧急停机（管理）
func (c *Client) Shutdown(ctx context.Context) error {
	resp, err := c.newRequest(ctx).Post("/api/shutdown")
	return checkResponse(resp, err)
}

// State 节点状态查询结果
type State struct {
	Operational   bool   `json:"operational"`
	SnapshotNonce uint64 `json:"snapshot_nonce"`
	MMRRoot       string `json:"mmr_root"`
	Custodian     string `json:"custodian"`
}

// State 查询节点状态
func (c *Client) State(ctx context.Context) (*State, error) {
	var out State
	resp, err := c.newRequest(ctx).
		SetResult(&out).
		Get("/api/state")
	if cerr := checkResponse(resp, err); cerr != nil {
		return nil, cerr
	}
	return &out, nil
}
