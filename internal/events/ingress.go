package events

import (
	"math/big"

	"github.com/custodix/exchain/internal/domain"
)

// IngressKind 入口消息类别
type IngressKind string

const (
	IngressRegisterUser     IngressKind = "register_user"
	IngressAddProxy         IngressKind = "add_proxy"
	IngressDeposit          IngressKind = "deposit"
	IngressOpenTradingPair  IngressKind = "open_trading_pair"
	IngressCloseTradingPair IngressKind = "close_trading_pair"
	IngressShutdown         IngressKind = "shutdown"
)

// IngressMessage 面向链下消费者的入口消息。
// 逐区块累积，区块边界被整体读走后清空，不跨区块持久。
type IngressMessage struct {
	Kind IngressKind `json:"kind"`

	// RegisterUser / AddProxy
	Main  *domain.AccountID `json:"main,omitempty"`
	Proxy *domain.AccountID `json:"proxy,omitempty"`

	// Deposit
	User   *domain.AccountID `json:"user,omitempty"`
	Asset  *domain.AssetID   `json:"asset,omitempty"`
	Amount *big.Int          `json:"amount,omitempty"`

	// OpenTradingPair / CloseTradingPair：携带完整交易对记录
	Pair *domain.TradingPair `json:"pair,omitempty"`
}

// NewRegisterUser 注册主账户消息
func NewRegisterUser(main, proxy domain.AccountID) IngressMessage {
	return IngressMessage{Kind: IngressRegisterUser, Main: &main, Proxy: &proxy}
}

// NewAddProxy 添加代理消息
func NewAddProxy(main, proxy domain.AccountID) IngressMessage {
	return IngressMessage{Kind: IngressAddProxy, Main: &main, Proxy: &proxy}
}

// NewDeposit 充值消息
func NewDeposit(user domain.AccountID, asset domain.AssetID, amount *big.Int) IngressMessage {
	return IngressMessage{Kind: IngressDeposit, User: &user, Asset: &asset, Amount: amount}
}

// NewOpenTradingPair 开放交易对消息
func NewOpenTradingPair(pair domain.TradingPair) IngressMessage {
	return IngressMessage{Kind: IngressOpenTradingPair, Pair: &pair}
}

// NewCloseTradingPair 关闭交易对消息
func NewCloseTradingPair(pair domain.TradingPair) IngressMessage {
	return IngressMessage{Kind: IngressCloseTradingPair, Pair: &pair}
}

// NewShutdown 交易所停机消息
func NewShutdown() IngressMessage {
	return IngressMessage{Kind: IngressShutdown}
}
