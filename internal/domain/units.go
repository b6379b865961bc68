package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// UnitDecimals 原生资产的链上最小单位小数位数
const UnitDecimals = 12

// ToPlanck 将人类可读数量转为链上最小单位整数（截断超出精度的部分）
func ToPlanck(amount decimal.Decimal) *big.Int {
	return amount.Shift(UnitDecimals).Truncate(0).BigInt()
}

// FromPlanck 将链上最小单位整数转为人类可读数量
func FromPlanck(amount *big.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -UnitDecimals)
}
