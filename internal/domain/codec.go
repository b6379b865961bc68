package domain

import (
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/blake2b"
)

// 规范编码统一采用 RLP：确定性、无长度歧义，提交方与校验方逐字节一致。
// 叶子哈希与签名摘要统一采用 blake2b-256。

// EncodeSnapshot 计算快照的规范编码（编码前先 Normalize）
func EncodeSnapshot(s *EnclaveSnapshot) ([]byte, error) {
	s.Normalize()
	return rlp.EncodeToBytes(s)
}

// SnapshotDigest 计算快照签名摘要：blake2b-256(规范编码)
func SnapshotDigest(s *EnclaveSnapshot) ([32]byte, error) {
	b, err := EncodeSnapshot(s)
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(b), nil
}

// EncodeAccountInfo 计算账户记录的规范编码（MMR 叶子的输入）
func EncodeAccountInfo(main AccountID, info AccountInfo) ([]byte, error) {
	record := struct {
		Main    AccountID
		Proxies []AccountID
	}{Main: main, Proxies: info.Proxies}
	return rlp.EncodeToBytes(&record)
}
