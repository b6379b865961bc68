package attest

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	report, err := BuildReport(key, []byte("measurement-quote"))
	require.NoError(t, err)

	pub, err := NewReportVerifier().Verify(report)
	require.NoError(t, err, "合法报告应通过校验")
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(*pub),
		"恢复的公钥应与签发密钥一致")
}

func TestVerifyRejectsEmpty(t *testing.T) {
	_, err := NewReportVerifier().Verify(nil)
	assert.ErrorIs(t, err, ErrInvalidReport)
	_, err = NewReportVerifier().Verify([]byte{})
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewReportVerifier().Verify([]byte("definitely not rlp"))
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestVerifyRejectsTamperedQuote(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	report, err := BuildReport(key, []byte("quote-a"))
	require.NoError(t, err)

	// 篡改报告内容使签名失配
	tampered := append([]byte(nil), report...)
	tampered[len(tampered)-1] ^= 0xff

	_, verr := NewReportVerifier().Verify(tampered)
	assert.ErrorIs(t, verr, ErrInvalidReport)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	keyA, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyB, err := crypto.GenerateKey()
	require.NoError(t, err)

	// 报告声称密钥 A，签名却出自密钥 B
	pubA := crypto.FromECDSAPub(&keyA.PublicKey)
	digest := reportDigest(pubA, []byte("quote"))
	sig, err := crypto.Sign(digest[:], keyB)
	require.NoError(t, err)

	raw, err := rlp.EncodeToBytes(&Report{EnclaveKey: pubA, Quote: []byte("quote"), Signature: sig})
	require.NoError(t, err)
	_, verr := NewReportVerifier().Verify(raw)
	assert.ErrorIs(t, verr, ErrInvalidReport)
}
