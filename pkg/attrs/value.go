// Package attrs reads and updates the attributes.yml sidecar of a node.
package attrs

import (
	"fmt"
	"strings"

	"exdir/pkg/types"

	"gopkg.in/yaml.v3"
)

// Value 是一个属性：名字 + 文件里的 YAML 节点
// node 为 nil 表示这个 key 根本不存在 (undefined)
type Value struct {
	Name string
	node *yaml.Node
}

// Undefined 构造一个不存在的属性
func Undefined(name string) Value { return Value{Name: name} }

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// lookup 在 mapping 节点里找 key
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

func (v Value) Defined() bool { return v.node != nil }

func (v Value) IsNull() bool { return isNull(v.node) }

// Unit 只对 {value, unit} 形式的属性有意义
func (v Value) Unit() string {
	u := lookup(v.node, "unit")
	if u == nil || u.Kind != yaml.ScalarNode || isNull(u) {
		return ""
	}
	return u.Value
}

// DisplayString 的规则：
//   - {value: 3.5, unit: mV} -> "3.5 mV"
//   - {value: 3.5}           -> "3.5"
//   - {value: [1, 2]}        -> "[map]"
//   - {value: null, unit: V} -> "[map]"
//   - [1, 2, 3]              -> "1, 2, 3"
//   - null                   -> "[null]"
//   - key 不存在             -> "[undefined]"
func (v Value) DisplayString() string {
	if v.node == nil {
		return "[undefined]"
	}
	return display(v.node)
}

func display(n *yaml.Node) string {
	n = resolve(n)
	switch {
	case n == nil:
		return "[undefined]"
	case isNull(n):
		return "[null]"
	}

	switch n.Kind {
	case yaml.MappingNode:
		val := lookup(n, "value")
		if val == nil || val.Kind != yaml.ScalarNode || isNull(val) {
			return "[map]"
		}
		unit := lookup(n, "unit")
		if unit != nil && unit.Kind == yaml.ScalarNode && !isNull(unit) {
			return display(val) + " " + unit.Value
		}
		return display(val)
	case yaml.SequenceNode:
		parts := make([]string, len(n.Content))
		for i, e := range n.Content {
			parts[i] = display(e)
		}
		return strings.Join(parts, ", ")
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return "[null]"
		}
		return display(n.Content[0])
	}
	return n.Value
}

// Raw 把节点解码成普通 Go 值 (map / []any / string / int / float64 / bool / nil)
func (v Value) Raw() any {
	if v.node == nil {
		return nil
	}
	var out any
	if err := v.node.Decode(&out); err != nil {
		return v.node.Value
	}
	return out
}

// scalarNode 返回可用于标量提取的节点：裸标量，或 {value: 标量} 中的 value
func (v Value) scalarNode() (*yaml.Node, error) {
	if v.node == nil {
		return nil, fmt.Errorf("%w: attribute %q", types.ErrNotFound, v.Name)
	}
	n := v.node
	if n.Kind == yaml.MappingNode {
		n = lookup(n, "value")
	}
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return nil, fmt.Errorf("%w: attribute %q is not a scalar", types.ErrTypeMismatch, v.Name)
	}
	return n, nil
}

// Scalar 是 As 支持的标量类型
type Scalar interface {
	~string | ~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Number 是 VectorOf 支持的数值类型
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// As 把扁平标量属性提取为 T，类型不符返回 TypeMismatch
func As[T Scalar](v Value) (T, error) {
	var out T
	n, err := v.scalarNode()
	if err != nil {
		return out, err
	}
	if err := n.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: attribute %q: %v", types.ErrTypeMismatch, v.Name, err)
	}
	return out, nil
}

// VectorOf 把扁平数值序列提取为 []T
// {value: [..]} 形式同样支持
func VectorOf[T Number](v Value) ([]T, error) {
	if v.node == nil {
		return nil, fmt.Errorf("%w: attribute %q", types.ErrNotFound, v.Name)
	}
	n := v.node
	if n.Kind == yaml.MappingNode {
		n = lookup(n, "value")
	}
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: attribute %q is not a sequence", types.ErrTypeMismatch, v.Name)
	}

	out := make([]T, len(n.Content))
	for i, e := range n.Content {
		e = resolve(e)
		if e.Kind != yaml.ScalarNode || isNull(e) {
			return nil, fmt.Errorf("%w: attribute %q element %d is not a scalar", types.ErrTypeMismatch, v.Name, i)
		}
		if err := e.Decode(&out[i]); err != nil {
			return nil, fmt.Errorf("%w: attribute %q element %d: %v", types.ErrTypeMismatch, v.Name, i, err)
		}
	}
	return out, nil
}
