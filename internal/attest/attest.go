package attest

import (
	"bytes"
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/blake2b"
)

// Verifier 远程证明校验方：校验证明报告并恢复飞地公钥。
// 空报告或格式错误必须确定性失败。
type Verifier interface {
	Verify(report []byte) (*ecdsa.PublicKey, error)
}

// ErrInvalidReport 证明报告校验失败
var ErrInvalidReport = errors.New("attest: invalid attestation report")

// Report 证明报告的载体格式。
// Signature 为飞地密钥对报告摘要的自签名，证明密钥确实生成于报告所述飞地。
type Report struct {
	// EnclaveKey 未压缩的 65 字节 secp256k1 公钥
	EnclaveKey []byte
	// Quote 厂商签发的度量引用
	Quote []byte
	// Signature 65 字节 (r, s, v) 签名，消息为 blake2b-256(EnclaveKey || Quote)
	Signature []byte
}

// reportDigest 报告签名摘要
func reportDigest(enclaveKey, quote []byte) [32]byte {
	buf := make([]byte, 0, len(enclaveKey)+len(quote))
	buf = append(buf, enclaveKey...)
	buf = append(buf, quote...)
	return blake2b.Sum256(buf)
}

// ReportVerifier 校验自签名报告格式的 Verifier 实现
type ReportVerifier struct{}

// NewReportVerifier 创建报告校验器
func NewReportVerifier() *ReportVerifier {
	return &ReportVerifier{}
}

// Verify 解析报告并校验自签名；成功时返回飞地公钥
func (v *ReportVerifier) Verify(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidReport
	}
	var report Report
	if err := rlp.DecodeBytes(raw, &report); err != nil {
		return nil, ErrInvalidReport
	}
	if len(report.EnclaveKey) != 65 || len(report.Signature) != 65 {
		return nil, ErrInvalidReport
	}
	digest := reportDigest(report.EnclaveKey, report.Quote)
	pub, err := crypto.SigToPub(digest[:], report.Signature)
	if err != nil {
		return nil, ErrInvalidReport
	}
	if !bytes.Equal(crypto.FromECDSAPub(pub), report.EnclaveKey) {
		return nil, ErrInvalidReport
	}
	return pub, nil
}

// BuildReport 用飞地私钥构造一份可通过校验的报告（飞地侧与测试使用）
func BuildReport(key *ecdsa.PrivateKey, quote []byte) ([]byte, error) {
	pub := crypto.FromECDSAPub(&key.PublicKey)
	digest := reportDigest(pub, quote)
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&Report{EnclaveKey: pub, Quote: quote, Signature: sig})
}
