// Package manifest computes a content-addressed description of a subtree.
// Each node is encoded as canonical CBOR; containers reference their
// children by hash, so two trees with identical groups, datasets and
// attributes produce the same root hash wherever they are stored.
package manifest

import "exdir/pkg/types"

// EntryType 固定为 "exdir-node"，方便解码时识别
const EntryType = "exdir-node"

// Entry 是单个节点的 manifest 条目
type Entry struct {
	TypeVal string `cbor:"t"`
	Kind    string `cbor:"k"`

	// dataset 专有
	Dtype string `cbor:"d,omitempty"`
	Shape []int  `cbor:"s,omitempty"`
	Order string `cbor:"o,omitempty"`
	Data  *Link  `cbor:"b,omitempty"`

	// attributes.yml 的原始字节 hash，没有 sidecar 时为空
	Attrs *Link `cbor:"a,omitempty"`

	Children []Child `cbor:"c,omitempty"`
}

// Child 是容器对子节点的引用，按名字排序
type Child struct {
	Name string `cbor:"n"`
	Kind string `cbor:"k"`
	Hash Link   `cbor:"h"`
}

// Tree 是 Build 的结果：每个节点的 hash、条目以及展开的子树
type Tree struct {
	Hash     types.Hash
	Path     types.Path
	Entry    *Entry
	Raw      []byte
	Children []*Tree
}

// Walk 深度优先访问整棵树
func (t *Tree) Walk(fn func(*Tree)) {
	fn(t)
	for _, c := range t.Children {
		c.Walk(fn)
	}
}
