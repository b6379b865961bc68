package ledger

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodix/exchain/internal/assets"
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
)

func TestDeposit(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	fund(t, assetLedger, domain.AssetNative, user, 1000)

	require.NoError(t, l.Deposit(domain.OriginSigned(user), domain.AssetNative, big.NewInt(400)), "充值应成功")

	assert.Equal(t, int64(600), assetLedger.BalanceOf(domain.AssetNative, user).Int64(), "用户余额应减少")
	assert.Equal(t, int64(400), assetLedger.BalanceOf(domain.AssetNative, l.CustodianAccount()).Int64(), "托管余额应增加")

	msgs, err := l.IngressMessages()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, events.IngressDeposit, msgs[0].Kind)
	assert.Equal(t, int64(400), msgs[0].Amount.Int64())
}

func TestDepositFailures(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	fund(t, assetLedger, domain.AssetNative, user, 100)

	assert.ErrorIs(t, l.Deposit(domain.OriginNone(), domain.AssetNative, big.NewInt(1)), ErrBadOrigin)
	assert.ErrorIs(t, l.Deposit(domain.OriginSigned(user), domain.AssetNative, big.NewInt(101)),
		assets.ErrInsufficientBalance, "余额不足时资产账本错误按原样透传")
	assert.ErrorIs(t, l.Deposit(domain.OriginSigned(user), domain.AssetID(9), big.NewInt(1)),
		assets.ErrUnknownAsset, "未登记资产的错误按原样透传")

	assert.Equal(t, int64(100), assetLedger.BalanceOf(domain.AssetNative, user).Int64(), "失败的充值不应移动资产")
	msgs, err := l.IngressMessages()
	require.NoError(t, err)
	assert.Empty(t, msgs, "失败的充值不应产生入口消息")
}

func TestWithdraw(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	enclave := newTestEnclave(t)
	enclave.register(t, l)
	fund(t, assetLedger, domain.AssetNative, l.CustodianAccount(), 1000)

	enclave.submit(t, l, singleWithdrawalSnapshot(1, user, domain.AssetNative, 250))
	require.NoError(t, l.Withdraw(domain.OriginSigned(user), 1), "认领取款应成功")

	assert.Equal(t, int64(250), assetLedger.BalanceOf(domain.AssetNative, user).Int64())
	assert.Equal(t, int64(750), assetLedger.BalanceOf(domain.AssetNative, l.CustodianAccount()).Int64())

	withdrawals, err := l.Withdrawals(1)
	require.NoError(t, err)
	assert.NotContains(t, withdrawals, user.Hex(), "已认领的条目应被移除")

	ocs, err := l.OnChainEvents()
	require.NoError(t, err)
	require.Len(t, ocs, 2) // 快照入库 + 取款认领
	assert.Equal(t, events.OnChainWithdrawalClaimed, ocs[1].Kind)
	assert.Equal(t, user, *ocs[1].Account)
}

func TestWithdrawClaimedOnce(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	enclave := newTestEnclave(t)
	enclave.register(t, l)
	fund(t, assetLedger, domain.AssetNative, l.CustodianAccount(), 1000)
	enclave.submit(t, l, singleWithdrawalSnapshot(1, user, domain.AssetNative, 250))

	require.NoError(t, l.Withdraw(domain.OriginSigned(user), 1))
	err := l.Withdraw(domain.OriginSigned(user), 1)
	assert.ErrorIs(t, err, ErrInvalidWithdrawalIndex, "每个 (账户, 快照) 至多认领一次")
	assert.Equal(t, int64(250), assetLedger.BalanceOf(domain.AssetNative, user).Int64(), "重复认领不应再移动资产")
}

func TestWithdrawConcurrentClaimOnce(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	enclave := newTestEnclave(t)
	enclave.register(t, l)
	fund(t, assetLedger, domain.AssetNative, l.CustodianAccount(), 1000)
	enclave.submit(t, l, singleWithdrawalSnapshot(1, user, domain.AssetNative, 250))

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Withdraw(domain.OriginSigned(user), 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidWithdrawalIndex, "落败的并发认领应因条目缺失而失败")
	}
	assert.Equal(t, 1, succeeded, "同一 (账户, 快照) 并发认领只允许一次成功")
	assert.Equal(t, int64(250), assetLedger.BalanceOf(domain.AssetNative, user).Int64(), "用户到账不得超过单笔条目金额")
	assert.Equal(t, int64(750), assetLedger.BalanceOf(domain.AssetNative, l.CustodianAccount()).Int64())
}

func TestDepositConcurrent(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	fund(t, assetLedger, domain.AssetNative, user, 1000)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Deposit(domain.OriginSigned(user), domain.AssetNative, big.NewInt(100))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err, "余额充足时并发充值应全部成功")
	}
	assert.Equal(t, int64(200), assetLedger.BalanceOf(domain.AssetNative, user).Int64())
	assert.Equal(t, int64(800), assetLedger.BalanceOf(domain.AssetNative, l.CustodianAccount()).Int64(), "托管入账必须与充值记录一一对应")

	msgs, err := l.IngressMessages()
	require.NoError(t, err)
	assert.Len(t, msgs, callers, "每笔成功充值恰好产生一条入口消息")
}

func TestWithdrawUnknown(t *testing.T) {
	l, _ := newTestLedger(t)
	user := testAccount(1)

	assert.ErrorIs(t, l.Withdraw(domain.OriginSigned(user), 7), ErrInvalidWithdrawalIndex, "未知快照序号应失败")
	assert.ErrorIs(t, l.Withdraw(domain.OriginNone(), 1), ErrBadOrigin)
}

func TestWithdrawOtherUserHasNoClaim(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	other := testAccount(2)
	enclave := newTestEnclave(t)
	enclave.register(t, l)
	fund(t, assetLedger, domain.AssetNative, l.CustodianAccount(), 1000)
	enclave.submit(t, l, singleWithdrawalSnapshot(1, user, domain.AssetNative, 250))

	err := l.Withdraw(domain.OriginSigned(other), 1)
	assert.ErrorIs(t, err, ErrInvalidWithdrawalIndex, "没有取款条目的账户不可认领")
}

func TestWithdrawInsufficientCustody(t *testing.T) {
	l, assetLedger := newTestLedger(t)
	user := testAccount(1)
	enclave := newTestEnclave(t)
	enclave.register(t, l)
	fund(t, assetLedger, domain.AssetNative, l.CustodianAccount(), 100)
	enclave.submit(t, l, singleWithdrawalSnapshot(1, user, domain.AssetNative, 250))

	err := l.Withdraw(domain.OriginSigned(user), 1)
	assert.ErrorIs(t, err, assets.ErrInsufficientBalance)

	assert.Equal(t, int64(0), assetLedger.BalanceOf(domain.AssetNative, user).Int64(), "被拒绝的认领不应移动资产")
	withdrawals, err := l.Withdrawals(1)
	require.NoError(t, err)
	assert.Contains(t, withdrawals, user.Hex(), "被拒绝的认领应保留取款条目")
}
