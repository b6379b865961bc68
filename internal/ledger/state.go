package ledger

import (
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/logger"
)

// Shutdown 紧急停机：置交易所状态为禁止交易并通知飞地。
// 仅管理来源。本操作不提供恢复路径。
func (l *Ledger) Shutdown(origin domain.Origin) error {
	log := logOp("shutdown")
	if !origin.IsRoot() {
		return log.rejected(ErrBadOrigin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		if err := tx.SetJSON(keyExchangeState, false); err != nil {
			return err
		}
		if err := appendIngress(tx, events.NewShutdown()); err != nil {
			return err
		}
		return appendEvent(tx, events.Event{Kind: events.EventExchangeShutdown})
	})
	if err != nil {
		return log.rejected(err)
	}
	logger.Warn("交易所已紧急停机")
	log.accepted()
	return nil
}
