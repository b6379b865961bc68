package mmr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

// TestEmptyRoot 空 MMR 的根应为全零
func TestEmptyRoot(t *testing.T) {
	m := New()
	assert.Equal(t, Hash{}, m.Root(), "空 MMR 的根应为零哈希")
	assert.Equal(t, uint64(0), m.Size())
}

// TestSingleLeafRoot 单叶子 MMR 的根等于叶子哈希本身
func TestSingleLeafRoot(t *testing.T) {
	m := New()
	leaf := HashLeaf([]byte("account-1"))
	m.Push(leaf)
	assert.Equal(t, leaf, m.Root(), "单叶子的根应等于叶子哈希")
}

// TestTwoLeavesRoot 两个叶子的根应为 merge(l1, l2)
func TestTwoLeavesRoot(t *testing.T) {
	l1 := HashLeaf([]byte("account-1"))
	l2 := HashLeaf([]byte("account-2"))

	m := New()
	m.Push(l1)
	m.Push(l2)

	expected := Merge(l1, l2)
	assert.Equal(t, expected, m.Root())
}

// TestThreeLeavesBagging 三个叶子：两座山峰袋装
func TestThreeLeavesBagging(t *testing.T) {
	l1 := HashLeaf([]byte("a"))
	l2 := HashLeaf([]byte("b"))
	l3 := HashLeaf([]byte("c"))

	m := New()
	m.Push(l1)
	m.Push(l2)
	m.Push(l3)

	// 山峰: [merge(l1,l2), l3]，袋装后 root = merge(merge(l1,l2), l3)
	expected := Merge(Merge(l1, l2), l3)
	assert.Equal(t, expected, m.Root())
}

// TestMergeDefinition 合并函数应为 blake2b-256(left || right)
func TestMergeDefinition(t *testing.T) {
	var l, r Hash
	copy(l[:], []byte("left-node-hash"))
	copy(r[:], []byte("right-node-hash"))

	var buf [64]byte
	copy(buf[:32], l[:])
	copy(buf[32:], r[:])
	expected := blake2b.Sum256(buf[:])

	assert.Equal(t, Hash(expected), Merge(l, r))
}

// TestRootDeterministic 同一输入序列的根应逐字节一致
func TestRootDeterministic(t *testing.T) {
	var encoded [][]byte
	for i := 0; i < 100; i++ {
		encoded = append(encoded, []byte(fmt.Sprintf("account-record-%03d", i)))
	}

	r1 := RootOf(encoded)
	r2 := RootOf(encoded)
	require.Equal(t, r1, r2, "两次计算的根应逐字节一致")
}

// TestRootOrderSensitive 交换输入顺序会得到不同但确定的根
func TestRootOrderSensitive(t *testing.T) {
	a := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}
	b := [][]byte{[]byte("d"), []byte("c"), []byte("b"), []byte("a")}

	ra := RootOf(a)
	rb := RootOf(b)
	assert.NotEqual(t, ra, rb, "顺序不同的输入应得到不同的根")
	assert.Equal(t, rb, RootOf(b), "任意固定顺序下根仍然是确定的")
}

// TestSizeTracking Push 返回值与 Size 一致
func TestSizeTracking(t *testing.T) {
	m := New()
	for i := 1; i <= 8; i++ {
		n := m.PushEncoded([]byte{byte(i)})
		require.Equal(t, uint64(i), n)
	}
	assert.Equal(t, uint64(8), m.Size())
}
