package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// AccountID 链上账户标识（20 字节地址）
type AccountID = common.Address

// AccountInfo 主账户信息：持有授权代理账户集合
type AccountInfo struct {
	// Proxies 代理账户列表，注册时以主账户自身作为第一个代理
	Proxies []AccountID `json:"proxies"`
}

// NewAccountInfo 创建主账户信息，代理集合以 main 自身作为种子
func NewAccountInfo(main AccountID) AccountInfo {
	return AccountInfo{Proxies: []AccountID{main}}
}

// HasProxy 判断 proxy 是否在代理集合中
func (a *AccountInfo) HasProxy(proxy AccountID) bool {
	for _, p := range a.Proxies {
		if p == proxy {
			return true
		}
	}
	return false
}
