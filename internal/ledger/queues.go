package ledger

import (
	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/logger"
)

// 队列约定：
//   - 入口消息与运行时事件逐区块累积，OnInitialize 清空；
//   - 链上审计事件持久且容量受限，追加越界使触发调用整体失败，
//     由纪元边界的 OnInitialize 清空恢复容量。

func appendIngress(tx *kvstore.Tx, msg events.IngressMessage) error {
	var queue []events.IngressMessage
	if err := tx.GetJSON(keyIngressQueue, &queue); err != nil && err != kvstore.ErrNotFound {
		return err
	}
	queue = append(queue, msg)
	return tx.SetJSON(keyIngressQueue, queue)
}

func appendEvent(tx *kvstore.Tx, ev events.Event) error {
	var queue []events.Event
	if err := tx.GetJSON(keyRuntimeEvents, &queue); err != nil && err != kvstore.ErrNotFound {
		return err
	}
	queue = append(queue, ev)
	return tx.SetJSON(keyRuntimeEvents, queue)
}

// appendOnChainEvent 追加持久审计事件，容量不足时返回越界错误
func (l *Ledger) appendOnChainEvent(tx *kvstore.Tx, ev events.OnChainEvent) error {
	var queue []events.OnChainEvent
	if err := tx.GetJSON(keyOnChainEvents, &queue); err != nil && err != kvstore.ErrNotFound {
		return err
	}
	if len(queue)+1 > l.limits.OnChainEventsLimit {
		return ErrOnchainEventsBoundedVecOverflow
	}
	queue = append(queue, ev)
	return tx.SetJSON(keyOnChainEvents, queue)
}

// onChainEventsHaveRoom 预检容量。涉及资产转移的调用必须在发起任何
// 转账之前完成本检查，保证越界拒绝时资产账本同样未被触碰。
func (l *Ledger) onChainEventsHaveRoom(tx *kvstore.Tx, need int) error {
	var queue []events.OnChainEvent
	if err := tx.GetJSON(keyOnChainEvents, &queue); err != nil && err != kvstore.ErrNotFound {
		return err
	}
	if len(queue)+need > l.limits.OnChainEventsLimit {
		return ErrOnchainEventsBoundedVecOverflow
	}
	return nil
}

// IngressMessages 读取当前区块已累积的入口消息
func (l *Ledger) IngressMessages() ([]events.IngressMessage, error) {
	var queue []events.IngressMessage
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(keyIngressQueue, &queue)
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	})
	return queue, err
}

// Events 读取当前区块已累积的运行时事件
func (l *Ledger) Events() ([]events.Event, error) {
	var queue []events.Event
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(keyRuntimeEvents, &queue)
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	})
	return queue, err
}

// OnChainEvents 读取持久审计事件日志
func (l *Ledger) OnChainEvents() ([]events.OnChainEvent, error) {
	var queue []events.OnChainEvent
	err := l.store.View(func(tx *kvstore.Tx) error {
		err := tx.GetJSON(keyOnChainEvents, &queue)
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	})
	return queue, err
}

// TakeIngressMessages 区块边界：转出并清空本区块的入口消息与运行时事件。
// 链上审计事件不受影响（它由纪元回调清空）。
func (l *Ledger) TakeIngressMessages() ([]events.IngressMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var drained []events.IngressMessage
	err := l.store.Update(func(tx *kvstore.Tx) error {
		if err := tx.GetJSON(keyIngressQueue, &drained); err != nil && err != kvstore.ErrNotFound {
			return err
		}
		if err := tx.Delete(keyIngressQueue); err != nil {
			return err
		}
		return tx.Delete(keyRuntimeEvents)
	})
	if err != nil {
		return nil, err
	}
	return drained, nil
}

// OnInitialize 纪元边界回调：返回并清空本区块的入口消息与运行时事件，
// 并无条件清空链上审计事件日志（纪元边界由调用方调度）。
func (l *Ledger) OnInitialize(block uint64) ([]events.IngressMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var drained []events.IngressMessage
	err := l.store.Update(func(tx *kvstore.Tx) error {
		if err := tx.GetJSON(keyIngressQueue, &drained); err != nil && err != kvstore.ErrNotFound {
			return err
		}
		if err := tx.Delete(keyIngressQueue); err != nil {
			return err
		}
		if err := tx.Delete(keyRuntimeEvents); err != nil {
			return err
		}
		return tx.Delete(keyOnChainEvents)
	})
	if err != nil {
		return nil, err
	}
	if len(drained) > 0 {
		logger.Debugf("区块 %d 初始化：转出 %d 条入口消息", block, len(drained))
	}
	return drained, nil
}
