package domain

import "fmt"

// AssetID 资产标识。0 为原生资产，其余为资产账本中登记的资产编号。
type AssetID uint64

// AssetNative 原生资产
const AssetNative AssetID = 0

// IsNative 判断是否为原生资产
func (a AssetID) IsNative() bool {
	return a == AssetNative
}

func (a AssetID) String() string {
	if a.IsNative() {
		return "native"
	}
	return fmt.Sprintf("asset(%d)", uint64(a))
}
