package events

import (
	"math/big"

	"github.com/custodix/exchain/internal/domain"
)

// EventKind 运行时事件类别
type EventKind string

const (
	EventMainAccountRegistered EventKind = "main_account_registered"
	EventNewProxyAdded         EventKind = "new_proxy_added"
	EventTradingPairRegistered EventKind = "trading_pair_registered"
	EventOpenTradingPair       EventKind = "open_trading_pair"
	EventShutdownTradingPair   EventKind = "shutdown_trading_pair"
	EventDepositSuccessful     EventKind = "deposit_successful"
	EventWithdrawalClaimed     EventKind = "withdrawal_claimed"
	EventEnclaveRegistered     EventKind = "enclave_registered"
	EventSnapshotProcessed     EventKind = "snapshot_processed"
	EventFeesClaims            EventKind = "fees_claims"
	EventExchangeShutdown      EventKind = "exchange_shutdown"
)

// Event 单次状态变更附带的运行时事件（逐区块累积，随区块清空）
type Event struct {
	Kind EventKind `json:"kind"`

	Main        *domain.AccountID `json:"main,omitempty"`
	Proxy       *domain.AccountID `json:"proxy,omitempty"`
	Base        *domain.AssetID   `json:"base,omitempty"`
	Quote       *domain.AssetID   `json:"quote,omitempty"`
	User        *domain.AccountID `json:"user,omitempty"`
	Asset       *domain.AssetID   `json:"asset,omitempty"`
	Amount      *big.Int          `json:"amount,omitempty"`
	Enclave     *domain.AccountID `json:"enclave,omitempty"`
	Nonce       uint64            `json:"nonce,omitempty"`
	Beneficiary *domain.AccountID `json:"beneficiary,omitempty"`
}
