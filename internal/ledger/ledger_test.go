package ledger

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/custodix/exchain/internal/assets"
	"github.com/custodix/exchain/internal/attest"
	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/pkg/config"
	"github.com/custodix/exchain/pkg/kvstore"
)

// 测试环境：内存 badger 存储 + badger 资产账本 + 自签名报告校验器

func defaultTestLimits() config.LimitsConfig {
	return config.Default().Limits
}

func defaultTestPolicy() config.PolicyConfig {
	return config.Default().Policy
}

func newTestLedgerWith(t *testing.T, limits config.LimitsConfig, policy config.PolicyConfig) (*Ledger, *assets.BadgerLedger) {
	t.Helper()
	store, err := kvstore.Open(kvstore.OpenOptions{InMemory: true})
	require.NoError(t, err, "打开内存存储失败")
	t.Cleanup(func() { _ = store.Close() })
	assetLedger := assets.NewBadgerLedger(store)
	return New(store, assetLedger, attest.NewReportVerifier(), limits, policy), assetLedger
}

func newTestLedger(t *testing.T) (*Ledger, *assets.BadgerLedger) {
	t.Helper()
	return newTestLedgerWith(t, defaultTestLimits(), defaultTestPolicy())
}

func testAccount(n byte) domain.AccountID {
	var a domain.AccountID
	a[19] = n
	return a
}

func fund(t *testing.T, assetLedger *assets.BadgerLedger, asset domain.AssetID, who domain.AccountID, amount int64) {
	t.Helper()
	if !asset.IsNative() {
		require.NoError(t, assetLedger.Create(asset), "登记资产失败")
	}
	require.NoError(t, assetLedger.Mint(asset, who, big.NewInt(amount)), "铸造测试余额失败")
}

// testEnclave 一把测试飞地密钥及其派生地址
type testEnclave struct {
	key  *ecdsa.PrivateKey
	addr domain.AccountID
}

func newTestEnclave(t *testing.T) *testEnclave {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err, "生成飞地密钥失败")
	return &testEnclave{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// register 走完整远程证明路径把飞地加入受信任集合
func (e *testEnclave) register(t *testing.T, l *Ledger) {
	t.Helper()
	report, err := attest.BuildReport(e.key, []byte("test-quote"))
	require.NoError(t, err, "构造证明报告失败")
	require.NoError(t, l.RegisterEnclave(domain.OriginRoot(), report), "注册飞地失败")
}

func (e *testEnclave) sign(t *testing.T, snapshot *domain.EnclaveSnapshot) []byte {
	t.Helper()
	digest, err := domain.SnapshotDigest(snapshot)
	require.NoError(t, err, "计算快照摘要失败")
	sig, err := crypto.Sign(digest[:], e.key)
	require.NoError(t, err, "签名快照失败")
	return sig
}

// submit 签名并提交快照，要求成功
func (e *testEnclave) submit(t *testing.T, l *Ledger, snapshot domain.EnclaveSnapshot) {
	t.Helper()
	sig := e.sign(t, &snapshot)
	require.NoError(t, l.SubmitSnapshot(domain.OriginSigned(e.addr), snapshot, sig), "提交快照失败")
}

func singleWithdrawalSnapshot(nonce uint64, user domain.AccountID, asset domain.AssetID, amount int64) domain.EnclaveSnapshot {
	return domain.EnclaveSnapshot{
		SnapshotNumber: nonce,
		Withdrawals: []domain.AccountWithdrawals{{
			MainAccount: user,
			Withdrawals: []domain.Withdrawal{{
				MainAccount: user,
				Amount:      big.NewInt(amount),
				Asset:       asset,
				EventID:     1,
				Fees:        big.NewInt(0),
			}},
		}},
	}
}
