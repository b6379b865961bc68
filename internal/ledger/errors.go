package ledger

import "errors"

// 错误分类：来源错误、未找到、冲突、容量、密码学、序号。
// 任何失败调用都不改变持久状态。
var (
	// ErrBadOrigin 调用来源类别不符（统一拒绝，不区分匿名与管理来源）
	ErrBadOrigin = errors.New("bad origin")

	// ErrMainAccountAlreadyRegistered 主账户重复注册
	ErrMainAccountAlreadyRegistered = errors.New("main account already registered")
	// ErrMainAccountNotFound 主账户不存在
	ErrMainAccountNotFound = errors.New("main account not found")
	// ErrProxyLimitExceeded 代理数量达到上限
	ErrProxyLimitExceeded = errors.New("proxy limit exceeded")

	// ErrBothAssetsCannotBeSame 交易对两侧资产相同
	ErrBothAssetsCannotBeSame = errors.New("both assets cannot be same")
	// ErrTradingPairAlreadyRegistered 交易对（含反向）已注册
	ErrTradingPairAlreadyRegistered = errors.New("trading pair already registered")
	// ErrTradingPairNotFound 交易对不存在
	ErrTradingPairNotFound = errors.New("trading pair not found")

	// ErrInvalidWithdrawalIndex 该 (账户, 快照序号) 下没有可认领的取款
	ErrInvalidWithdrawalIndex = errors.New("invalid withdrawal index")
	// ErrOnchainEventsBoundedVecOverflow 链上审计事件已达容量，触发调用整体拒绝
	ErrOnchainEventsBoundedVecOverflow = errors.New("onchain events bounded vec overflow")

	// ErrRemoteAttestationVerificationFailed 远程证明校验失败
	ErrRemoteAttestationVerificationFailed = errors.New("remote attestation verification failed")
	// ErrSenderIsNotAttestedEnclave 提交者不在受信任飞地集合中
	ErrSenderIsNotAttestedEnclave = errors.New("sender is not attested enclave")
	// ErrSnapshotNonceError 快照序号不等于 last + 1
	ErrSnapshotNonceError = errors.New("snapshot nonce error")
	// ErrEnclaveSignatureVerificationFailed 飞地签名校验失败
	ErrEnclaveSignatureVerificationFailed = errors.New("enclave signature verification failed")

	// ErrSnapshotLimitsExceeded 快照内的有界集合超出配置容量
	ErrSnapshotLimitsExceeded = errors.New("snapshot limits exceeded")
)
