package assets

import (
	"fmt"
	"math/big"

	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/pkg/kvstore"
)

// BadgerLedger 基于 badger 的资产账本实现。
// 原生资产始终存在；其余资产需先 Create 登记。
type BadgerLedger struct {
	store *kvstore.Store
}

// NewBadgerLedger 创建资产账本
func NewBadgerLedger(store *kvstore.Store) *BadgerLedger {
	return &BadgerLedger{store: store}
}

func balanceKey(asset domain.AssetID, who domain.AccountID) string {
	return fmt.Sprintf("assets:bal:%d:%s", uint64(asset), who.Hex())
}

func assetKey(asset domain.AssetID) string {
	return fmt.Sprintf("assets:reg:%d", uint64(asset))
}

// Create 登记一种非原生资产
func (l *BadgerLedger) Create(asset domain.AssetID) error {
	if asset.IsNative() {
		return nil
	}
	return l.store.Update(func(tx *kvstore.Tx) error {
		return tx.SetJSON(assetKey(asset), true)
	})
}

func (l *BadgerLedger) assetExists(tx *kvstore.Tx, asset domain.AssetID) (bool, error) {
	if asset.IsNative() {
		return true, nil
	}
	return tx.Has(assetKey(asset))
}

func getBalance(tx *kvstore.Tx, asset domain.AssetID, who domain.AccountID) (*big.Int, error) {
	var raw string
	err := tx.GetJSON(balanceKey(asset, who), &raw)
	if err == kvstore.ErrNotFound {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	bal, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("assets: 余额记录损坏: %q", raw)
	}
	return bal, nil
}

func setBalance(tx *kvstore.Tx, asset domain.AssetID, who domain.AccountID, bal *big.Int) error {
	return tx.SetJSON(balanceKey(asset, who), bal.String())
}

// Transfer 从 from 向 to 转移 amount；余额不足或资产未登记时失败且不产生任何写入
func (l *BadgerLedger) Transfer(from, to domain.AccountID, asset domain.AssetID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("assets: 无效的转账数量")
	}
	return l.store.Update(func(tx *kvstore.Tx) error {
		exists, err := l.assetExists(tx, asset)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUnknownAsset
		}
		fromBal, err := getBalance(tx, asset, from)
		if err != nil {
			return err
		}
		if fromBal.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		toBal, err := getBalance(tx, asset, to)
		if err != nil {
			return err
		}
		if err := setBalance(tx, asset, from, new(big.Int).Sub(fromBal, amount)); err != nil {
			return err
		}
		return setBalance(tx, asset, to, new(big.Int).Add(toBal, amount))
	})
}

// Mint 为 to 铸造 amount 数量的 asset
func (l *BadgerLedger) Mint(asset domain.AssetID, to domain.AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("assets: 无效的铸造数量")
	}
	return l.store.Update(func(tx *kvstore.Tx) error {
		exists, err := l.assetExists(tx, asset)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUnknownAsset
		}
		bal, err := getBalance(tx, asset, to)
		if err != nil {
			return err
		}
		return setBalance(tx, asset, to, new(big.Int).Add(bal, amount))
	})
}

// BalanceOf 查询余额；读取失败时返回 0
func (l *BadgerLedger) BalanceOf(asset domain.AssetID, who domain.AccountID) *big.Int {
	out := new(big.Int)
	_ = l.store.View(func(tx *kvstore.Tx) error {
		bal, err := getBalance(tx, asset, who)
		if err != nil {
			return err
		}
		out = bal
		return nil
	})
	return out
}
