package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
)

func TestRegisterMainAccount(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)

	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main), "首次注册应当成功")

	info, found, err := l.Account(main)
	require.NoError(t, err)
	require.True(t, found, "注册后应能查到账户")
	assert.Equal(t, []domain.AccountID{main}, info.Proxies, "代理集合应以主账户自身为种子")
}

func TestRegisterMainAccountOrigin(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)

	assert.ErrorIs(t, l.RegisterMainAccount(domain.OriginNone(), main), ErrBadOrigin, "匿名来源应被拒绝")
	assert.ErrorIs(t, l.RegisterMainAccount(domain.OriginRoot(), main), ErrBadOrigin, "管理来源不是签名来源，应被拒绝")

	_, found, err := l.Account(main)
	require.NoError(t, err)
	assert.False(t, found, "被拒绝的调用不应留下账户记录")
}

func TestRegisterMainAccountDuplicate(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)

	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))
	err := l.RegisterMainAccount(domain.OriginSigned(main), main)
	assert.ErrorIs(t, err, ErrMainAccountAlreadyRegistered, "重复注册应失败")

	info, _, err := l.Account(main)
	require.NoError(t, err)
	assert.Len(t, info.Proxies, 1, "失败的重复注册不应改动代理集合")
}

func TestRegisterMainAccountQueues(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)
	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))

	msgs, err := l.IngressMessages()
	require.NoError(t, err)
	require.Len(t, msgs, 1, "应产生一条入口消息")
	assert.Equal(t, events.IngressRegisterUser, msgs[0].Kind)
	assert.Equal(t, main, *msgs[0].Main)
	assert.Equal(t, main, *msgs[0].Proxy, "入口消息的初始代理应为主账户自身")

	evs, err := l.Events()
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventMainAccountRegistered, evs[0].Kind)
}

func TestAddProxyAccount(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)
	proxy := testAccount(2)

	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))
	require.NoError(t, l.AddProxyAccount(domain.OriginSigned(main), main, proxy), "添加代理应成功")

	info, _, err := l.Account(main)
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountID{main, proxy}, info.Proxies)

	msgs, err := l.IngressMessages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, events.IngressAddProxy, msgs[1].Kind)
	assert.Equal(t, proxy, *msgs[1].Proxy)
}

func TestAddProxyAccountUnknownMain(t *testing.T) {
	l, _ := newTestLedger(t)
	err := l.AddProxyAccount(domain.OriginSigned(testAccount(1)), testAccount(1), testAccount(2))
	assert.ErrorIs(t, err, ErrMainAccountNotFound, "未注册主账户不可追加代理")
}

func TestAddProxyAccountLimit(t *testing.T) {
	l, _ := newTestLedger(t) // ProxyLimit = 3，自代理占一席
	main := testAccount(1)
	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))
	require.NoError(t, l.AddProxyAccount(domain.OriginSigned(main), main, testAccount(2)))
	require.NoError(t, l.AddProxyAccount(domain.OriginSigned(main), main, testAccount(3)))

	err := l.AddProxyAccount(domain.OriginSigned(main), main, testAccount(4))
	assert.ErrorIs(t, err, ErrProxyLimitExceeded, "超过代理上限应失败")

	info, _, err := l.Account(main)
	require.NoError(t, err)
	assert.Len(t, info.Proxies, 3, "失败的调用不应改动代理集合")
}
