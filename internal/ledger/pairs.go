package ledger

import (
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/kvstore"
)

// RegisterTradingPair 注册交易对并置为开放。
// 仅管理来源；(base, quote) 与 (quote, base) 视为同一交易对。
func (l *Ledger) RegisterTradingPair(origin domain.Origin, pair domain.TradingPair) error {
	log := logOp("register_trading_pair")
	if !origin.IsRoot() {
		return log.rejected(ErrBadOrigin)
	}
	if pair.BaseAsset == pair.QuoteAsset {
		return log.rejected(ErrBothAssetsCannotBeSame)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		forward, err := tx.Has(pairKey(pair.BaseAsset, pair.QuoteAsset))
		if err != nil {
			return err
		}
		reverse, err := tx.Has(pairKey(pair.QuoteAsset, pair.BaseAsset))
		if err != nil {
			return err
		}
		if forward || reverse {
			return ErrTradingPairAlreadyRegistered
		}
		if err := tx.SetJSON(pairKey(pair.BaseAsset, pair.QuoteAsset), pair); err != nil {
			return err
		}
		if err := tx.SetJSON(pairStatusKey(pair.BaseAsset, pair.QuoteAsset), true); err != nil {
			return err
		}
		if err := appendEvent(tx, events.Event{
			Kind:  events.EventTradingPairRegistered,
			Base:  &pair.BaseAsset,
			Quote: &pair.QuoteAsset,
		}); err != nil {
			return err
		}
		return appendIngress(tx, events.NewOpenTradingPair(pair))
	})
	if err != nil {
		return log.rejected(err)
	}
	log.accepted()
	return nil
}

// OpenTradingPair 开放已注册交易对。仅管理来源。
func (l *Ledger) OpenTradingPair(origin domain.Origin, base, quote domain.AssetID) error {
	return l.setPairStatus(origin, base, quote, true)
}

// CloseTradingPair 关闭已注册交易对。仅管理来源。
func (l *Ledger) CloseTradingPair(origin domain.Origin, base, quote domain.AssetID) error {
	return l.setPairStatus(origin, base, quote, false)
}

func (l *Ledger) setPairStatus(origin domain.Origin, base, quote domain.AssetID, open bool) error {
	op := "close_trading_pair"
	if open {
		op = "open_trading_pair"
	}
	log := logOp(op)
	if !origin.IsRoot() {
		return log.rejected(ErrBadOrigin)
	}
	if base == quote {
		return log.rejected(ErrBothAssetsCannotBeSame)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		var pair domain.TradingPair
		err := tx.GetJSON(pairKey(base, quote), &pair)
		if err == kvstore.ErrNotFound {
			return ErrTradingPairNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.SetJSON(pairStatusKey(base, quote), open); err != nil {
			return err
		}
		kind := events.EventShutdownTradingPair
		ingress := events.NewCloseTradingPair(pair)
		if open {
			kind = events.EventOpenTradingPair
			ingress = events.NewOpenTradingPair(pair)
		}
		if err := appendEvent(tx, events.Event{Kind: kind, Base: &base, Quote: &quote}); err != nil {
			return err
		}
		return appendIngress(tx, ingress)
	})
	if err != nil {
		return log.rejected(err)
	}
	log.accepted()
	return nil
}
