package ledger

import (
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/custodix/exchain/internal/domain"
	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/kvstore"
	"github.com/custodix/exchain/pkg/logger"
)

// RegisterEnclave 校验远程证明报告并把恢复出的飞地公钥加入受信任集合。
// 仅管理来源。飞地集合只增不减：本规范没有撤销路径。
func (l *Ledger) RegisterEnclave(origin domain.Origin, report []byte) error {
	log := logOp("register_enclave")
	if !origin.IsRoot() {
		return log.rejected(ErrBadOrigin)
	}
	pub, err := l.verifier.Verify(report)
	if err != nil {
		return log.rejected(ErrRemoteAttestationVerificationFailed)
	}
	enclave := crypto.PubkeyToAddress(*pub)
	l.mu.Lock()
	defer l.mu.Unlock()
	err = l.store.Update(func(tx *kvstore.Tx) error {
		if err := tx.SetJSON(enclaveKey(enclave), true); err != nil {
			return err
		}
		return appendEvent(tx, events.Event{Kind: events.EventEnclaveRegistered, Enclave: &enclave})
	})
	if err != nil {
		return log.rejected(err)
	}
	logger.WithField("enclave", enclave.Hex()).Info("飞地已通过远程证明注册")
	log.accepted()
	return nil
}

// InsertEnclave 直接插入受信任飞地（绕过远程证明）。仅管理来源；
// 用于引导环境与测试网。
func (l *Ledger) InsertEnclave(origin domain.Origin, enclave domain.AccountID) error {
	log := logOp("insert_enclave")
	if !origin.IsRoot() {
		return log.rejected(ErrBadOrigin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		if err := tx.SetJSON(enclaveKey(enclave), true); err != nil {
			return err
		}
		return appendEvent(tx, events.Event{Kind: events.EventEnclaveRegistered, Enclave: &enclave})
	})
	if err != nil {
		return log.rejected(err)
	}
	log.accepted()
	return nil
}

// SubmitSnapshot 接受飞地的签名快照。校验顺序固定：
//  1. 提交者必须在受信任飞地集合中；
//  2. 快照序号必须等于 last + 1（过期与超前一并拒绝）;
//  3. 签名必须能用提交者的飞地密钥对规范编码摘要验通过。
//
// 全部通过后在同一事务内落盘快照、取款映射、手续费池并推进序号；
// 任何一步失败都不留下部分写入。
func (l *Ledger) SubmitSnapshot(origin domain.Origin, snapshot domain.EnclaveSnapshot, signature []byte) error {
	log := logOp("submit_snapshot")
	sender, ok := origin.Signer()
	if !ok {
		return log.rejected(ErrBadOrigin)
	}
	if err := l.checkSnapshotLimits(&snapshot); err != nil {
		return log.rejected(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.store.Update(func(tx *kvstore.Tx) error {
		attested, err := tx.Has(enclaveKey(sender))
		if err != nil {
			return err
		}
		if !attested {
			return ErrSenderIsNotAttestedEnclave
		}

		var last uint64
		if err := getNonce(tx, &last); err != nil {
			return err
		}
		if snapshot.SnapshotNumber != last+1 {
			return ErrSnapshotNonceError
		}

		digest, err := domain.SnapshotDigest(&snapshot)
		if err != nil {
			return err
		}
		if len(signature) != 65 {
			return ErrEnclaveSignatureVerificationFailed
		}
		pub, err := crypto.SigToPub(digest[:], signature)
		if err != nil || crypto.PubkeyToAddress(*pub) != sender {
			return ErrEnclaveSignatureVerificationFailed
		}

		nonce := snapshot.SnapshotNumber
		if err := tx.SetJSON(snapshotKey(nonce), snapshot); err != nil {
			return err
		}
		if err := tx.SetJSON(withdrawalsKey(nonce), toStoredWithdrawals(&snapshot)); err != nil {
			return err
		}
		if err := tx.SetJSON(feesKey(nonce), snapshot.Fees); err != nil {
			return err
		}
		if err := tx.SetJSON(keySnapshotNonce, nonce); err != nil {
			return err
		}
		if err := l.appendOnChainEvent(tx, events.NewSnapshotStored(nonce)); err != nil {
			return err
		}
		return appendEvent(tx, events.Event{Kind: events.EventSnapshotProcessed, Nonce: nonce})
	})
	if err != nil {
		return log.rejected(err)
	}
	logger.WithFields(map[string]interface{}{
		"nonce": snapshot.SnapshotNumber, "enclave": sender.Hex(),
	}).Info("快照已接受")
	log.accepted()
	return nil
}

// checkSnapshotLimits 校验快照内有界集合的容量
func (l *Ledger) checkSnapshotLimits(snapshot *domain.EnclaveSnapshot) error {
	if len(snapshot.Withdrawals) > l.limits.SnapshotAccLimit {
		return ErrSnapshotLimitsExceeded
	}
	if len(snapshot.Fees) > l.limits.AssetsLimit {
		return ErrSnapshotLimitsExceeded
	}
	for _, aw := range snapshot.Withdrawals {
		if len(aw.Withdrawals) > l.limits.WithdrawalLimit {
			return ErrSnapshotLimitsExceeded
		}
	}
	return nil
}

func toStoredWithdrawals(snapshot *domain.EnclaveSnapshot) map[string][]domain.Withdrawal {
	out := make(map[string][]domain.Withdrawal, len(snapshot.Withdrawals))
	for _, aw := range snapshot.Withdrawals {
		out[aw.MainAccount.Hex()] = aw.Withdrawals
	}
	return out
}
