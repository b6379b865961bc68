package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"

	"github.com/custodix/exchain/internal/assets"
	"github.com/custodix/exchain/internal/attest"
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/pkg/config"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/logger"
)

// custodianSeed 托管账户派生种子（模块固定，不受用户控制）
const custodianSeed = "exchain/ocex/custodian"

// Ledger 托管交易所链上账本。
// 所有入口为同步的、全有或全无的状态迁移：每次调用在单个存储事务内
// 完成读改写，失败时持久状态与调用前逐字节一致。
// 可变入口由 mu 串行化：资产账本与存储事务跨两个提交域，预检只有在
// 无并发交错时才能保证检查与转账之间状态不变。
type Ledger struct {
	store    *kvstore.Store
	assets   assets.Ledger
	verifier attest.Verifier
	limits   config.LimitsConfig
	policy   config.PolicyConfig

	// mu 保护全部可变入口，只读查询走 badger 快照无需持锁
	mu sync.Mutex

	custodian domain.AccountID
}

// New 创建账本实例
func New(store *kvstore.Store, assetLedger assets.Ledger, verifier attest.Verifier, limits config.LimitsConfig, policy config.PolicyConfig) *Ledger {
	h := blake2b.Sum256([]byte(custodianSeed))
	return &Ledger{
		store:     store,
		assets:    assetLedger,
		verifier:  verifier,
		limits:    limits,
		policy:    policy,
		custodian: common.BytesToAddress(h[12:]),
	}
}

// CustodianAccount 返回模块派生的托管账户
func (l *Ledger) CustodianAccount() domain.AccountID {
	return l.custodian
}

// Account 查询主账户信息
func (l *Ledger) Account(main domain.AccountID) (domain.AccountInfo, bool, error) {
	var info domain.AccountInfo
	found := false
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(accountKey(main), &info)
		if err == kvstore.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return info, found, err
}

// TradingPair 查询交易对记录及开关状态
func (l *Ledger) TradingPair(base, quote domain.AssetID) (domain.TradingPair, bool, error) {
	var pair domain.TradingPair
	found := false
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(pairKey(base, quote), &pair)
		if err == kvstore.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return pair, found, err
}

// TradingPairOpen 查询交易对是否开放
func (l *Ledger) TradingPairOpen(base, quote domain.AssetID) (bool, error) {
	open := false
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(pairStatusKey(base, quote), &open)
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	})
	return open, err
}

// SnapshotNonce 返回最近被接受的快照序号（尚无快照时为 0）
func (l *Ledger) SnapshotNonce() (uint64, error) {
	var nonce uint64
	err := l.store.View(func(tx *kvstore.Tx) error {
		return getNonce(tx, &nonce)
	})
	return nonce, err
}

// Snapshot 按序号查询已接受的快照
func (l *Ledger) Snapshot(nonce uint64) (domain.EnclaveSnapshot, bool, error) {
	var snap domain.EnclaveSnapshot
	found := false
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(snapshotKey(nonce), &snap)
		if err == kvstore.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return snap, found, err
}

// Withdrawals 查询某快照下尚未认领的取款映射
func (l *Ledger) Withdrawals(nonce uint64) (map[string][]domain.Withdrawal, error) {
	out := map[string][]domain.Withdrawal{}
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(withdrawalsKey(nonce), &out)
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	})
	return out, err
}

// FeesCollected 查询某快照下尚未领取的手续费池
func (l *Ledger) FeesCollected(nonce uint64) ([]domain.Fees, error) {
	var out []domain.Fees
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(feesKey(nonce), &out)
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	})
	return out, err
}

// IsRegisteredEnclave 查询某账户是否在受信任飞地集合中
func (l *Ledger) IsRegisteredEnclave(who domain.AccountID) (bool, error) {
	registered := false
	err := l.store.View(func(tx *kvstore.Tx) error {
		ok, err := tx.Has(enclaveKey(who))
		registered = ok
		return err
	})
	return registered, err
}

// ExchangeState 查询交易所是否允许交易（默认 true，仅 Shutdown 置为 false）
func (l *Ledger) ExchangeState() (bool, error) {
	state := true
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(keyExchangeState, &state)
		if err == kvstore.ErrNotFound {
			state = true
			return nil
		}
		return err
	})
	return state, err
}

func getNonce(tx *kvstore.Tx, out *uint64) error {
	err := tx.GetJSON(keySnapshotNonce, out)
	if err == kvstore.ErrNotFound {
		*out = 0
		return nil
	}
	return err
}

func logOp(op string) *logOpEntry {
	return &logOpEntry{op: op}
}

// logOpEntry 入口日志辅助：统一 accepted/rejected 记录
type logOpEntry struct {
	op string
}

func (e *logOpEntry) rejected(err error) error {
	logger.WithField("op", e.op).Debugf("调用被拒绝: %v", err)
	return err
}

func (e *logOpEntry) accepted() {
	logger.WithField("op", e.op).Debug("状态迁移完成")
}
