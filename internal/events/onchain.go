package events

import (
	"github.com/custodix/exchain/internal/domain"
)

// OnChainEventKind 持久审计事件类别
type OnChainEventKind string

const (
	// OnChainSnapshotStored 快照被接受，取款映射已入库
	OnChainSnapshotStored OnChainEventKind = "snapshot_stored"
	// OnChainWithdrawalClaimed 某账户在某快照下的取款已被认领
	OnChainWithdrawalClaimed OnChainEventKind = "withdrawal_claimed"
	// OnChainFeesClaimed 某快照的手续费被领取
	OnChainFeesClaimed OnChainEventKind = "fees_claimed"
)

// OnChainEvent 容量受限的持久审计记录。
// 超出容量时追加动作所在的调用整体失败，由纪元回调统一清空。
type OnChainEvent struct {
	Kind          OnChainEventKind    `json:"kind"`
	SnapshotNonce uint64              `json:"snapshot_nonce"`
	Account       *domain.AccountID   `json:"account,omitempty"`
	Withdrawals   []domain.Withdrawal `json:"withdrawals,omitempty"`
	Beneficiary   *domain.AccountID   `json:"beneficiary,omitempty"`
}

// NewSnapshotStored 快照入库审计事件
func NewSnapshotStored(nonce uint64) OnChainEvent {
	return OnChainEvent{Kind: OnChainSnapshotStored, SnapshotNonce: nonce}
}

// NewWithdrawalClaimed 取款认领审计事件
func NewWithdrawalClaimed(nonce uint64, account domain.AccountID, withdrawals []domain.Withdrawal) OnChainEvent {
	return OnChainEvent{
		Kind:          OnChainWithdrawalClaimed,
		SnapshotNonce: nonce,
		Account:       &account,
		Withdrawals:   withdrawals,
	}
}

// NewFeesClaimed 手续费领取审计事件
func NewFeesClaimed(nonce uint64, beneficiary domain.AccountID) OnChainEvent {
	return OnChainEvent{Kind: OnChainFeesClaimed, SnapshotNonce: nonce, Beneficiary: &beneficiary}
}
