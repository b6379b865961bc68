package mmr

import (
	"golang.org/x/crypto/blake2b"
)

// Hash 32 字节的 blake2b-256 哈希值
type Hash [32]byte

// peak 山峰节点：hash 为子树根，height 为子树高度（叶子为 0）
type peak struct {
	hash   Hash
	height int
}

// MMR Merkle Mountain Range 累加器。
// 叶子按插入顺序进入，等高山峰两两合并，根由所有山峰袋装（bagging）得到。
// 合并函数固定为 blake2b-256(left || right)，与快照校验方保持一致。
type MMR struct {
	peaks []peak
	size  uint64
}

// New 创建空的 MMR
func New() *MMR {
	return &MMR{}
}

// Merge 合并两个节点：blake2b-256(left || right)
func Merge(left, right Hash) Hash {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return blake2b.Sum256(buf[:])
}

// HashLeaf 计算叶子哈希：blake2b-256(编码后的记录)
func HashLeaf(encoded []byte) Hash {
	return blake2b.Sum256(encoded)
}

// Push 插入一个叶子哈希，返回插入后的叶子总数
func (m *MMR) Push(leaf Hash) uint64 {
	p := peak{hash: leaf, height: 0}
	// 与栈顶等高的山峰不断向上合并
	for len(m.peaks) > 0 && m.peaks[len(m.peaks)-1].height == p.height {
		top := m.peaks[len(m.peaks)-1]
		m.peaks = m.peaks[:len(m.peaks)-1]
		p = peak{hash: Merge(top.hash, p.hash), height: p.height + 1}
	}
	m.peaks = append(m.peaks, p)
	m.size++
	return m.size
}

// PushEncoded 插入一条编码后的记录（先做叶子哈希再 Push）
func (m *MMR) PushEncoded(encoded []byte) uint64 {
	return m.Push(HashLeaf(encoded))
}

// Size 返回叶子总数
func (m *MMR) Size() uint64 {
	return m.size
}

// Root 袋装所有山峰得到根承诺。
// 从最右侧山峰开始向左折叠：root = merge(p[i], root)。
// 空 MMR 的根为全零哈希。
func (m *MMR) Root() Hash {
	if len(m.peaks) == 0 {
		return Hash{}
	}
	root := m.peaks[len(m.peaks)-1].hash
	for i := len(m.peaks) - 2; i >= 0; i-- {
		root = Merge(m.peaks[i].hash, root)
	}
	return root
}

// RootOf 一次性计算一组编码记录的 MMR 根
func RootOf(encoded [][]byte) Hash {
	m := New()
	for _, e := range encoded {
		m.PushEncoded(e)
	}
	return m.Root()
}
