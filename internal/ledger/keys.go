package ledger

import (
	"fmt"

	"github.com/custodix/exchain/internal/domain"
)

// 持久状态的键空间。概念上是一个 KV 存储：
// 账户、交易对、飞地集合、快照/取款/手续费（按序号）、单一序号计数器、
// 交易所状态布尔值、有界链上事件序列。
const (
	keySnapshotNonce = "ocex:nonce"
	keyExchangeState = "ocex:state"
	keyIngressQueue  = "ocex:queue:ingress"
	keyOnChainEvents = "ocex:queue:onchain"
	keyRuntimeEvents = "ocex:queue:events"

	prefixAccount = "ocex:acc:"
)

func accountKey(main domain.AccountID) string {
	return prefixAccount + main.Hex()
}

func pairKey(base, quote domain.AssetID) string {
	return fmt.Sprintf("ocex:pair:%d:%d", uint64(base), uint64(quote))
}

func pairStatusKey(base, quote domain.AssetID) string {
	return fmt.Sprintf("ocex:pairstat:%d:%d", uint64(base), uint64(quote))
}

func enclaveKey(who domain.AccountID) string {
	return "ocex:enclave:" + who.Hex()
}

func snapshotKey(nonce uint64) string {
	return fmt.Sprintf("ocex:snapshot:%d", nonce)
}

func withdrawalsKey(nonce uint64) string {
	return fmt.Sprintf("ocex:withdrawals:%d", nonce)
}

func feesKey(nonce uint64) string {
	return fmt.Sprintf("ocex:fees:%d", nonce)
}
