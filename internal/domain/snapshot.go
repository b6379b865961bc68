package domain

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Withdrawal 快照中的一笔可取款项
type Withdrawal struct {
	MainAccount AccountID `json:"main_account"`
	Amount      *big.Int  `json:"amount"`
	Asset       AssetID   `json:"asset"`
	EventID     uint64    `json:"event_id"`
	Fees        *big.Int  `json:"fees"`
}

// Fees 快照中归属某资产的手续费池条目
type Fees struct {
	Asset  AssetID  `json:"asset"`
	Amount *big.Int `json:"amount"`
}

// AccountWithdrawals 某主账户在一个快照中的取款列表。
// RLP 不支持 map，取款映射以按账户字节序排序的列表形式规范化编码。
type AccountWithdrawals struct {
	MainAccount AccountID    `json:"main_account"`
	Withdrawals []Withdrawal `json:"withdrawals"`
}

// EnclaveSnapshot 飞地周期性提交的链下状态快照。
// 签名消息即本结构的规范化 RLP 编码，提交方与校验方必须逐字节一致。
type EnclaveSnapshot struct {
	// SnapshotNumber 严格递增的快照序号，被接受的快照满足 n = last + 1
	SnapshotNumber uint64 `json:"snapshot_number"`
	// MerkleRoot 账户状态向量的 MMR 根承诺
	MerkleRoot common.Hash `json:"merkle_root"`
	// Withdrawals 按主账户归组的取款列表（编码前按账户排序）
	Withdrawals []AccountWithdrawals `json:"withdrawals"`
	// Fees 本快照累计的手续费池
	Fees []Fees `json:"fees"`
}

// Normalize 使快照进入规范形态：取款列表按主账户字节序升序排列。
// 编码及签名前必须调用。
func (s *EnclaveSnapshot) Normalize() {
	sort.Slice(s.Withdrawals, func(i, j int) bool {
		return bytes.Compare(
			s.Withdrawals[i].MainAccount.Bytes(),
			s.Withdrawals[j].MainAccount.Bytes(),
		) < 0
	})
}

// WithdrawalMap 将取款列表转为按账户索引的映射（用于链上存储）
func (s *EnclaveSnapshot) WithdrawalMap() map[AccountID][]Withdrawal {
	out := make(map[AccountID][]Withdrawal, len(s.Withdrawals))
	for _, aw := range s.Withdrawals {
		out[aw.MainAccount] = aw.Withdrawals
	}
	return out
}
