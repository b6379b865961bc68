package ledger

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/mmr"
)

// CalculateMMRRoot 计算当前账户登记表的 MMR 根。
// 叶子为账户记录的规范编码（含代理列表），按存储键序入树，
// 同一账户集合在任何节点上得到相同的根。
func (l *Ledger) CalculateMMRRoot() (common.Hash, error) {
	tree := mmr.New()
	err := l.store.View(func(tx *kvstore.Tx) error {
		return tx.IteratePrefix(prefixAccount, func(key string, val []byte) error {
			var info domain.AccountInfo
			if err := json.Unmarshal(val, &info); err != nil {
				return err
			}
			main := common.HexToAddress(key[len(prefixAccount):])
			leaf, err := domain.EncodeAccountInfo(main, info)
			if err != nil {
				return err
			}
			tree.PushEncoded(leaf)
			return nil
		})
	})
	if err != nil {
		return common.Hash{}, err
	}
	root := tree.Root()
	return common.BytesToHash(root[:]), nil
}
