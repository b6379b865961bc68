package assets

import (
	"errors"
	"math/big"

	"github.com/custodix/exchain/internal/domain"
)

// 资产账本协作方的错误按原样透传给 deposit/withdraw/collect_fees 的调用者。
var (
	// ErrUnknownAsset 资产未登记
	ErrUnknownAsset = errors.New("assets: unknown asset")
	// ErrInsufficientBalance 余额不足
	ErrInsufficientBalance = errors.New("assets: insufficient balance")
)

// Ledger 可替换的资产账本协作方接口
type Ledger interface {
	// Transfer 从 from 向 to 转移 amount 数量的 asset
	Transfer(from, to domain.AccountID, asset domain.AssetID, amount *big.Int) error
	// Mint 为 to 铸造 amount 数量的 asset
	Mint(asset domain.AssetID, to domain.AccountID, amount *big.Int) error
	// BalanceOf 查询 who 持有的 asset 余额
	BalanceOf(asset domain.AssetID, who domain.AccountID) *big.Int
}
