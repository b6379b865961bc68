package gateway

import (
	"encoding/hex"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/custodix/exchain/internal/assets"
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/ledger"
)

// statusOf 账本哨兵错误到 HTTP 状态码的映射
func statusOf(err error) int {
	switch {
	case errors.Is(err, ledger.ErrBadOrigin):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrMainAccountNotFound),
		errors.Is(err, ledger.ErrTradingPairNotFound),
		errors.Is(err, ledger.ErrInvalidWithdrawalIndex):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrMainAccountAlreadyRegistered),
		errors.Is(err, ledger.ErrTradingPairAlreadyRegistered),
		errors.Is(err, ledger.ErrSnapshotNonceError):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrProxyLimitExceeded),
		errors.Is(err, ledger.ErrOnchainEventsBoundedVecOverflow),
		errors.Is(err, ledger.ErrSnapshotLimitsExceeded),
		errors.Is(err, assets.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrBothAssetsCannotBeSame),
		errors.Is(err, assets.ErrUnknownAsset),
		errors.Is(err, ledger.ErrRemoteAttestationVerificationFailed),
		errors.Is(err, ledger.ErrSenderIsNotAttestedEnclave),
		errors.Is(err, ledger.ErrEnclaveSignatureVerificationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

func parseAddress(raw string) (domain.AccountID, bool) {
	if !common.IsHexAddress(raw) {
		return domain.AccountID{}, false
	}
	return common.HexToAddress(raw), true
}

func parseAmount(raw string) (*big.Int, bool) {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

func parseHex(raw string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(raw, "0x"))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// --- 账户 ---

type registerAccountRequest struct {
	Main string `json:"main" binding:"required"`
}

func (s *Server) handleRegisterAccount(c *gin.Context) {
	var req registerAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	main, ok := parseAddress(req.Main)
	if !ok {
		badRequest(c, "main 不是合法地址")
		return
	}
	if err := s.ledger.RegisterMainAccount(domain.OriginSigned(main), main); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"main": main.Hex()})
}

func (s *Server) handleGetAccount(c *gin.Context) {
	main, ok := parseAddress(c.Param("main"))
	if !ok {
		badRequest(c, "main 不是合法地址")
		return
	}
	info, found, err := s.ledger.Account(main)
	if err != nil {
		fail(c, err)
		return
	}
	if !found {
		fail(c, ledger.ErrMainAccountNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"main": main.Hex(), "proxies": info.Proxies})
}

type addProxyRequest struct {
	Proxy string `json:"proxy" binding:"required"`
}

func (s *Server) handleAddProxy(c *gin.Context) {
	main, ok := parseAddress(c.Param("main"))
	if !ok {
		badRequest(c, "main 不是合法地址")
		return
	}
	var req addProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	proxy, ok := parseAddress(req.Proxy)
	if !ok {
		badRequest(c, "proxy 不是合法地址")
		return
	}
	if err := s.ledger.AddProxyAccount(domain.OriginSigned(main), main, proxy); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"main": main.Hex(), "proxy": proxy.Hex()})
}

// --- 交易对 ---

type pairRequest struct {
	BaseAsset      uint64 `json:"base_asset"`
	QuoteAsset     uint64 `json:"quote_asset"`
	MinOrderSize   string `json:"min_order_size" binding:"required"`
	MaxOrderSize   string `json:"max_order_size" binding:"required"`
	MinPrice       string `json:"min_price" binding:"required"`
	MaxPrice       string `json:"max_price" binding:"required"`
	MinTradeAmount string `json:"min_trade_amount" binding:"required"`
	MaxTradeAmount string `json:"max_trade_amount" binding:"required"`
	TickSize       string `json:"tick_size" binding:"required"`
}

func (r *pairRequest) toPair() (domain.TradingPair, bool) {
	pair := domain.TradingPair{
		BaseAsset:  domain.AssetID(r.BaseAsset),
		QuoteAsset: domain.AssetID(r.QuoteAsset),
	}
	fields := []struct {
		raw string
		dst **big.Int
	}{
		{r.MinOrderSize, &pair.MinOrderSize},
		{r.MaxOrderSize, &pair.MaxOrderSize},
		{r.MinPrice, &pair.MinPrice},
		{r.MaxPrice, &pair.MaxPrice},
		{r.MinTradeAmount, &pair.MinTradeAmount},
		{r.MaxTradeAmount, &pair.MaxTradeAmount},
		{r.TickSize, &pair.TickSize},
	}
	for _, f := range fields {
		n, ok := parseAmount(f.raw)
		if !ok {
			return domain.TradingPair{}, false
		}
		*f.dst = n
	}
	return pair, true
}

func (s *Server) handleRegisterPair(c *gin.Context) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	pair, ok := req.toPair()
	if !ok {
		badRequest(c, "交易对参数必须是非负十进制整数")
		return
	}
	if err := s.ledger.RegisterTradingPair(s.adminOrigin(c), pair); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

func pairParams(c *gin.Context) (base, quote domain.AssetID, ok bool) {
	b, err := strconv.ParseUint(c.Param("base"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	q, err := strconv.ParseUint(c.Param("quote"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return domain.AssetID(b), domain.AssetID(q), true
}

func (s *Server) handleGetPair(c *gin.Context) {
	base, quote, ok := pairParams(c)
	if !ok {
		badRequest(c, "资产编号必须是十进制整数")
		return
	}
	pair, found, err := s.ledger.TradingPair(base, quote)
	if err != nil {
		fail(c, err)
		return
	}
	if !found {
		fail(c, ledger.ErrTradingPairNotFound)
		return
	}
	open, err := s.ledger.TradingPairOpen(base, quote)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pair": pair, "open": open})
}

func (s *Server) handleOpenPair(c *gin.Context) {
	base, quote, ok := pairParams(c)
	if !ok {
		badRequest(c, "资产编号必须是十进制整数")
		return
	}
	if err := s.ledger.OpenTradingPair(s.adminOrigin(c), base, quote); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": true})
}

func (s *Server) handleClosePair(c *gin.Context) {
	base, quote, ok := pairParams(c)
	if !ok {
		badRequest(c, "资产编号必须是十进制整数")
		return
	}
	if err := s.ledger.CloseTradingPair(s.adminOrigin(c), base, quote); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": false})
}

// --- 资金 ---

type depositRequest struct {
	User   string `json:"user" binding:"required"`
	Asset  uint64 `json:"asset"`
	Amount string `json:"amount" binding:"required"`
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	user, ok := parseAddress(req.User)
	if !ok {
		badRequest(c, "user 不是合法地址")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		badRequest(c, "amount 必须是非负十进制整数")
		return
	}
	if err := s.ledger.Deposit(domain.OriginSigned(user), domain.AssetID(req.Asset), amount); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Hex(), "asset": req.Asset, "amount": amount.String()})
}

type withdrawRequest struct {
	User          string `json:"user" binding:"required"`
	SnapshotNonce uint64 `json:"snapshot_nonce"`
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	user, ok := parseAddress(req.User)
	if !ok {
		badRequest(c, "user 不是合法地址")
		return
	}
	if err := s.ledger.Withdraw(domain.OriginSigned(user), req.SnapshotNonce); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Hex(), "snapshot_nonce": req.SnapshotNonce})
}

// --- 飞地与快照 ---

type registerEnclaveRequest struct {
	Report string `json:"report" binding:"required"`
}

func (s *Server) handleRegisterEnclave(c *gin.Context) {
	var req registerEnclaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	report, err := parseHex(req.Report)
	if err != nil {
		badRequest(c, "report 必须是十六进制串")
		return
	}
	if err := s.ledger.RegisterEnclave(s.adminOrigin(c), report); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type insertEnclaveRequest struct {
	Address string `json:"address" binding:"required"`
}

func (s *Server) handleInsertEnclave(c *gin.Context) {
	var req insertEnclaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	addr, ok := parseAddress(req.Address)
	if !ok {
		badRequest(c, "address 不是合法地址")
		return
	}
	if err := s.ledger.InsertEnclave(s.adminOrigin(c), addr); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleGetEnclave(c *gin.Context) {
	addr, ok := parseAddress(c.Param("address"))
	if !ok {
		badRequest(c, "address 不是合法地址")
		return
	}
	registered, err := s.ledger.IsRegisteredEnclave(addr)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr.Hex(), "registered": registered})
}

type submitSnapshotRequest struct {
	Signer    string                 `json:"signer" binding:"required"`
	Signature string                 `json:"signature" binding:"required"`
	Snapshot  domain.EnclaveSnapshot `json:"snapshot"`
}

func (s *Server) handleSubmitSnapshot(c *gin.Context) {
	var req submitSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	signer, ok := parseAddress(req.Signer)
	if !ok {
		badRequest(c, "signer 不是合法地址")
		return
	}
	sig, err := parseHex(req.Signature)
	if err != nil {
		badRequest(c, "signature 必须是十六进制串")
		return
	}
	if err := s.ledger.SubmitSnapshot(domain.OriginSigned(signer), req.Snapshot, sig); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"snapshot_nonce": req.Snapshot.SnapshotNumber})
}

func nonceParam(c *gin.Context) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param("nonce"), 10, 64)
	return n, err == nil
}

func (s *Server) handleGetSnapshot(c *gin.Context) {
	nonce, ok := nonceParam(c)
	if !ok {
		badRequest(c, "nonce 必须是十进制整数")
		return
	}
	snap, found, err := s.ledger.Snapshot(nonce)
	if err != nil {
		fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "快照不存在"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleGetWithdrawals(c *gin.Context) {
	nonce, ok := nonceParam(c)
	if !ok {
		badRequest(c, "nonce 必须是十进制整数")
		return
	}
	withdrawals, err := s.ledger.Withdrawals(nonce)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

func (s *Server) handleGetFees(c *gin.Context) {
	nonce, ok := nonceParam(c)
	if !ok {
		badRequest(c, "nonce 必须是十进制整数")
		return
	}
	fees, err := s.ledger.FeesCollected(nonce)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fees)
}

// --- 管理 ---

type collectFeesRequest struct {
	SnapshotNonce uint64 `json:"snapshot_nonce"`
	Beneficiary   string `json:"beneficiary" binding:"required"`
}

func (s *Server) handleCollectFees(c *gin.Context) {
	var req collectFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	beneficiary, ok := parseAddress(req.Beneficiary)
	if !ok {
		badRequest(c, "beneficiary 不是合法地址")
		return
	}
	if err := s.ledger.CollectFees(s.adminOrigin(c), req.SnapshotNonce, beneficiary); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot_nonce": req.SnapshotNonce, "beneficiary": beneficiary.Hex()})
}

func (s *Server) handleShutdown(c *gin.Context) {
	if err := s.ledger.Shutdown(s.adminOrigin(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operational": false})
}

func (s *Server) handleState(c *gin.Context) {
	operational, err := s.ledger.ExchangeState()
	if err != nil {
		fail(c, err)
		return
	}
	nonce, err := s.ledger.SnapshotNonce()
	if err != nil {
		fail(c, err)
		return
	}
	root, err := s.ledger.CalculateMMRRoot()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operational":    operational,
		"snapshot_nonce": nonce,
		"mmr_root":       root.Hex(),
		"custodian":      s.ledger.CustodianAccount().Hex(),
	})
}
