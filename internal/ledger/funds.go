package ledger

import (
	"math/big"

	"github.com/custodix/exchain/internal/assets"
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/logger"
)

// Deposit 将用户资产转入托管账户。
// 需要普通签名来源；资产账本的错误按原样透传。
func (l *Ledger) Deposit(origin domain.Origin, asset domain.AssetID, amount *big.Int) error {
	log := logOp("deposit")
	user, ok := origin.Signer()
	if !ok {
		return log.rejected(ErrBadOrigin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.assets.Transfer(user, l.custodian, asset, amount); err != nil {
		return log.rejected(err)
	}
	err := l.store.Update(func(tx *kvstore.Tx) error {
		if err := appendEvent(tx, events.Event{
			Kind:   events.EventDepositSuccessful,
			User:   &user,
			Asset:  &asset,
			Amount: amount,
		}); err != nil {
			return err
		}
		return appendIngress(tx, events.NewDeposit(user, asset, amount))
	})
	if err != nil {
		return log.rejected(err)
	}
	logger.WithFields(map[string]interface{}{
		"user": user.Hex(), "asset": asset.String(), "amount": amount.String(),
	}).Info("充值入托管账户")
	log.accepted()
	return nil
}

// Withdraw 认领调用者在指定快照下的全部取款条目。
// 每个 (账户, 快照序号) 至多认领一次：成功后条目被移除，再次调用
// 因条目缺失而失败。审计日志容量不足时整个调用被拒绝，待纪元清理后重试。
func (l *Ledger) Withdraw(origin domain.Origin, snapshotNonce uint64) error {
	log := logOp("withdraw")
	user, ok := origin.Signer()
	if !ok {
		return log.rejected(ErrBadOrigin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		withdrawals := map[string][]domain.Withdrawal{}
		err := tx.GetJSON(withdrawalsKey(snapshotNonce), &withdrawals)
		if err == kvstore.ErrNotFound {
			return ErrInvalidWithdrawalIndex
		}
		if err != nil {
			return err
		}
		claimed, exists := withdrawals[user.Hex()]
		if !exists || len(claimed) == 0 {
			return ErrInvalidWithdrawalIndex
		}

		// 容量与余额预检都必须先于任何转账：被拒绝的调用不允许触碰资产账本
		if err := l.onChainEventsHaveRoom(tx, 1); err != nil {
			return err
		}
		perAsset := map[domain.AssetID]*big.Int{}
		for _, w := range claimed {
			sum, ok := perAsset[w.Asset]
			if !ok {
				sum = new(big.Int)
				perAsset[w.Asset] = sum
			}
			sum.Add(sum, w.Amount)
		}
		// 逐笔转账前确认托管余额充足，顺序执行模型下后续转账不会中途失败
		for asset, sum := range perAsset {
			if l.assets.BalanceOf(asset, l.custodian).Cmp(sum) < 0 {
				return assets.ErrInsufficientBalance
			}
		}
		for _, w := range claimed {
			if err := l.assets.Transfer(l.custodian, user, w.Asset, w.Amount); err != nil {
				return err
			}
		}

		delete(withdrawals, user.Hex())
		if err := tx.SetJSON(withdrawalsKey(snapshotNonce), withdrawals); err != nil {
			return err
		}
		if err := l.appendOnChainEvent(tx, events.NewWithdrawalClaimed(snapshotNonce, user, claimed)); err != nil {
			return err
		}
		return appendEvent(tx, events.Event{
			Kind:  events.EventWithdrawalClaimed,
			User:  &user,
			Nonce: snapshotNonce,
		})
	})
	if err != nil {
		return log.rejected(err)
	}
	log.accepted()
	return nil
}
