package ledger

import (
	"math/big"

	"github.com/custodix/exchain/internal/assets"
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/logger"
)

// CollectFees 把某快照累积的手续费拨付给受益人。仅管理来源。
// 每次调用最多处理 FeeBatchLimit 个资产条目，剩余条目留待下次调用；
// 序号未知或手续费池已空时无事发生且调用成功。原生资产从托管账户
// 转出，非原生资产直接铸给受益人。
func (l *Ledger) CollectFees(origin domain.Origin, nonce uint64, beneficiary domain.AccountID) error {
	log := logOp("collect_fees")
	if !origin.IsRoot() {
		return log.rejected(ErrBadOrigin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		var pool []domain.Fees
		if err := tx.GetJSON(feesKey(nonce), &pool); err != nil && err != kvstore.ErrNotFound {
			return err
		}
		if len(pool) == 0 {
			return nil
		}
		if err := l.onChainEventsHaveRoom(tx, 1); err != nil {
			return err
		}

		batch := l.policy.FeeBatchLimit
		if batch > len(pool) {
			batch = len(pool)
		}
		// 转账前确认托管的原生余额足以覆盖整个批次，被拒绝的调用不触碰资产账本
		nativeSum := new(big.Int)
		for _, fee := range pool[:batch] {
			if fee.Asset.IsNative() {
				nativeSum.Add(nativeSum, fee.Amount)
			}
		}
		if l.assets.BalanceOf(domain.AssetNative, l.custodian).Cmp(nativeSum) < 0 {
			return assets.ErrInsufficientBalance
		}
		for _, fee := range pool[:batch] {
			var err error
			if fee.Asset.IsNative() {
				err = l.assets.Transfer(l.custodian, beneficiary, fee.Asset, fee.Amount)
			} else {
				err = l.assets.Mint(fee.Asset, beneficiary, fee.Amount)
			}
			if err != nil {
				return err
			}
		}
		if err := tx.SetJSON(feesKey(nonce), pool[batch:]); err != nil {
			return err
		}
		if err := l.appendOnChainEvent(tx, events.NewFeesClaimed(nonce, beneficiary)); err != nil {
			return err
		}
		return appendEvent(tx, events.Event{Kind: events.EventFeesClaims, Beneficiary: &beneficiary, Nonce: nonce})
	})
	if err != nil {
		return log.rejected(err)
	}
	logger.WithFields(map[string]interface{}{
		"nonce": nonce, "beneficiary": beneficiary.Hex(),
	}).Info("手续费批次已拨付")
	log.accepted()
	return nil
}
