package ledger

import (
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/kvstore"
)

// RegisterMainAccount 注册主账户，代理集合以 main 自身作为种子。
// 需要普通签名来源；重复注册失败且状态不变。
func (l *Ledger) RegisterMainAccount(origin domain.Origin, main domain.AccountID) error {
	log := logOp("register_main_account")
	if _, ok := origin.Signer(); !ok {
		return log.rejected(ErrBadOrigin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		exists, err := tx.Has(accountKey(main))
		if err != nil {
			return err
		}
		if exists {
			return ErrMainAccountAlreadyRegistered
		}
		info := domain.NewAccountInfo(main)
		if err := tx.SetJSON(accountKey(main), info); err != nil {
			return err
		}
		if err := appendEvent(tx, events.Event{
			Kind:  events.EventMainAccountRegistered,
			Main:  &main,
			Proxy: &main,
		}); err != nil {
			return err
		}
		return appendIngress(tx, events.NewRegisterUser(main, main))
	})
	if err != nil {
		return log.rejected(err)
	}
	log.accepted()
	return nil
}

// AddProxyAccount 为已注册主账户追加代理。
// 需要普通签名来源；主账户不存在或代理达到上限时失败。
func (l *Ledger) AddProxyAccount(origin domain.Origin, main, proxy domain.AccountID) error {
	log := logOp("add_proxy_account")
	if _, ok := origin.Signer(); !ok {
		return log.rejected(ErrBadOrigin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		var info domain.AccountInfo
		err := tx.GetJSON(accountKey(main), &info)
		if err == kvstore.ErrNotFound {
			return ErrMainAccountNotFound
		}
		if err != nil {
			return err
		}
		if len(info.Proxies) >= l.limits.ProxyLimit {
			return ErrProxyLimitExceeded
		}
		info.Proxies = append(info.Proxies, proxy)
		if err := tx.SetJSON(accountKey(main), info); err != nil {
			return err
		}
		if err := appendEvent(tx, events.Event{
			Kind:  events.EventNewProxyAdded,
			Main:  &main,
			Proxy: &proxy,
		}); err != nil {
			return err
		}
		return appendIngress(tx, events.NewAddProxy(main, proxy))
	})
	if err != nil {
		return log.rejected(err)
	}
	log.accepted()
	return nil
}
