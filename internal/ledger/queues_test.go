package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
)

func TestTakeIngressMessagesDrains(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)
	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))
	require.NoError(t, l.AddProxyAccount(domain.OriginSigned(main), main, testAccount(2)))

	msgs, err := l.TakeIngressMessages()
	require.NoError(t, err)
	require.Len(t, msgs, 2, "区块边界应整体读走累积的入口消息")
	assert.Equal(t, events.IngressRegisterUser, msgs[0].Kind)
	assert.Equal(t, events.IngressAddProxy, msgs[1].Kind, "消息保持入队顺序")

	msgs, err = l.IngressMessages()
	require.NoError(t, err)
	assert.Empty(t, msgs, "转出后队列应为空")

	evs, err := l.Events()
	require.NoError(t, err)
	assert.Empty(t, evs, "运行时事件随区块一并清空")
}

func TestOnChainEventsOverflow(t *testing.T) {
	limits := defaultTestLimits()
	limits.OnChainEventsLimit = 2
	l, _ := newTestLedgerWith(t, limits, defaultTestPolicy())
	enclave := newTestEnclave(t)
	enclave.register(t, l)
	user := testAccount(1)

	enclave.submit(t, l, singleWithdrawalSnapshot(1, user, domain.AssetNative, 10))
	enclave.submit(t, l, singleWithdrawalSnapshot(2, user, domain.AssetNative, 10))

	// 容量已满：第三个快照被整体拒绝，序号不推进
	snap := singleWithdrawalSnapshot(3, user, domain.AssetNative, 10)
	sig := enclave.sign(t, &snap)
	err := l.SubmitSnapshot(domain.OriginSigned(enclave.addr), snap, sig)
	assert.ErrorIs(t, err, ErrOnchainEventsBoundedVecOverflow)

	nonce, err := l.SnapshotNonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)

	ocs, err := l.OnChainEvents()
	require.NoError(t, err)
	assert.Len(t, ocs, 2, "已有条目保持完整")
}

func TestOnInitializeRestoresCapacity(t *testing.T) {
	limits := defaultTestLimits()
	limits.OnChainEventsLimit = 2
	l, _ := newTestLedgerWith(t, limits, defaultTestPolicy())
	enclave := newTestEnclave(t)
	enclave.register(t, l)
	user := testAccount(1)

	enclave.submit(t, l, singleWithdrawalSnapshot(1, user, domain.AssetNative, 10))
	enclave.submit(t, l, singleWithdrawalSnapshot(2, user, domain.AssetNative, 10))

	drained, err := l.OnInitialize(10)
	require.NoError(t, err)
	assert.Empty(t, drained) // 快照不产生入口消息

	ocs, err := l.OnChainEvents()
	require.NoError(t, err)
	assert.Empty(t, ocs, "纪元边界清空审计日志")

	// 容量恢复后同一调用可以成功
	enclave.submit(t, l, singleWithdrawalSnapshot(3, user, domain.AssetNative, 10))
	nonce, err := l.SnapshotNonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nonce)
}

func TestOnInitializeDrainsIngress(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)
	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))

	drained, err := l.OnInitialize(10)
	require.NoError(t, err)
	require.Len(t, drained, 1)
	assert.Equal(t, events.IngressRegisterUser, drained[0].Kind)
}
