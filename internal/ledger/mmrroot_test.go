package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodix/exchain/internal/domain"
)

func TestCalculateMMRRootEmpty(t *testing.T) {
	l, _ := newTestLedger(t)
	root, err := l.CalculateMMRRoot()
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, root, "空账户集合的根为零值")
}

func TestCalculateMMRRootDeterministic(t *testing.T) {
	l, _ := newTestLedger(t)
	for _, n := range []byte{3, 1, 2} {
		main := testAccount(n)
		require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))
	}

	first, err := l.CalculateMMRRoot()
	require.NoError(t, err)
	second, err := l.CalculateMMRRoot()
	require.NoError(t, err)
	assert.Equal(t, first, second, "同一账户集合应得到相同的根")
	assert.NotEqual(t, common.Hash{}, first)
}

func TestCalculateMMRRootTracksState(t *testing.T) {
	l, _ := newTestLedger(t)
	main := testAccount(1)
	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(main), main))
	before, err := l.CalculateMMRRoot()
	require.NoError(t, err)

	// 新账户改变根
	other := testAccount(2)
	require.NoError(t, l.RegisterMainAccount(domain.OriginSigned(other), other))
	afterAdd, err := l.CalculateMMRRoot()
	require.NoError(t, err)
	assert.NotEqual(t, before, afterAdd, "账户集合变化应改变根承诺")

	// 代理集合变化同样改变根
	require.NoError(t, l.AddProxyAccount(domain.OriginSigned(main), main, testAccount(3)))
	afterProxy, err := l.CalculateMMRRoot()
	require.NoError(t, err)
	assert.NotEqual(t, afterAdd, afterProxy, "代理列表参与叶子编码")
}
