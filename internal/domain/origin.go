package domain

// originKind 调用来源类别
type originKind uint8

const (
	originNone originKind = iota
	originSigned
	originRoot
)

// Origin 调用来源：封闭的三元变体 {None, Signed(addr), Root}。
// 每个入口在做任何状态读写之前先检查来源类别。
type Origin struct {
	kind   originKind
	signer AccountID
}

// OriginNone 匿名来源
func OriginNone() Origin {
	return Origin{kind: originNone}
}

// OriginSigned 普通签名来源
func OriginSigned(signer AccountID) Origin {
	return Origin{kind: originSigned, signer: signer}
}

// OriginRoot 管理权限来源
func OriginRoot() Origin {
	return Origin{kind: originRoot}
}

// Signer 返回签名账户；仅 Signed 来源返回 true
func (o Origin) Signer() (AccountID, bool) {
	if o.kind != originSigned {
		return AccountID{}, false
	}
	return o.signer, true
}

// IsRoot 是否为管理权限来源
func (o Origin) IsRoot() bool {
	return o.kind == originRoot
}
