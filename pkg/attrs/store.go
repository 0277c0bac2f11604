package attrs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"exdir/pkg/storage"
	"exdir/pkg/types"

	"gopkg.in/yaml.v3"
)

// FileName 是属性 sidecar 的文件名
const FileName = "attributes.yml"

// Set 是有序的属性集合，顺序就是文件里的顺序
type Set struct {
	names  []string
	values map[string]Value
}

func (s *Set) Len() int { return len(s.names) }

// Keys 返回所有属性名 (文件顺序)
func (s *Set) Keys() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Set) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Get 永远返回一个 Value；不存在时是 undefined
func (s *Set) Get(name string) Value {
	if v, ok := s.values[name]; ok {
		return v
	}
	return Undefined(name)
}

func (s *Set) All() []Value {
	out := make([]Value, len(s.names))
	for i, n := range s.names {
		out[i] = s.values[n]
	}
	return out
}

// Parse 解析 attributes.yml 的内容
// 空文件等价于没有属性；顶层必须是 mapping
func Parse(data []byte) (*Set, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	return fromMapping(doc.Content[0]), nil
}

func fromMapping(m *yaml.Node) *Set {
	s := &Set{values: make(map[string]Value)}
	for i := 0; i+1 < len(m.Content); i += 2 {
		name := m.Content[i].Value
		if _, dup := s.values[name]; dup {
			continue
		}
		s.names = append(s.names, name)
		s.values[name] = Value{Name: name, node: resolve(m.Content[i+1])}
	}
	return s
}

// parseDocument 返回一个 DocumentNode，Content[0] 保证是 mapping
func parseDocument(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFormat, FileName, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		// 空文件
		return &yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}, nil
	}
	root := resolve(doc.Content[0])
	if isNull(root) {
		doc.Content[0] = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		return &doc, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: top level must be a mapping", types.ErrFormat, FileName)
	}
	return &doc, nil
}

// Load 读取目录 dir 下的属性；没有 sidecar 就是空集合
func Load(ctx context.Context, backend storage.Backend, dir types.Path) (*Set, error) {
	data, err := backend.ReadFile(ctx, dir.File(FileName))
	if errors.Is(err, types.ErrNotFound) {
		return &Set{values: make(map[string]Value)}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// SetNumber 写入一个数值属性
//   - 已存在的 {value, unit}：只替换 value，unit 保留
//   - 已存在的标量或其他形式：整体替换成标量
//   - 不存在：追加到末尾
//
// 新旧值相等时什么都不写，返回 changed=false
func SetNumber(ctx context.Context, backend storage.Backend, dir types.Path, name string, value float64) (bool, error) {
	file := dir.File(FileName)

	data, err := backend.ReadFile(ctx, file)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return false, err
	}
	doc, err := parseDocument(data)
	if err != nil {
		return false, err
	}
	root := resolve(doc.Content[0])

	target := lookup(root, name)
	if target != nil && target.Kind == yaml.MappingNode {
		if val := lookup(target, "value"); val != nil && val.Kind == yaml.ScalarNode {
			target = val
		}
	}

	switch {
	case target == nil:
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			numberNode(value),
		)
	case equalNumber(target, value):
		return false, nil
	default:
		*target = *numberNode(value)
	}

	out, err := encodeDocument(doc)
	if err != nil {
		return false, err
	}
	if err := backend.WriteFile(ctx, file, out); err != nil {
		return false, err
	}
	return true, nil
}

func numberNode(v float64) *yaml.Node {
	text := strconv.FormatFloat(v, 'g', -1, 64)
	switch {
	case math.IsNaN(v):
		text = ".nan"
	case math.IsInf(v, 1):
		text = ".inf"
	case math.IsInf(v, -1):
		text = "-.inf"
	}
	// Tag 留空，让编码器按字面量自动推断 (3 -> int, 3.5 -> float)
	return &yaml.Node{Kind: yaml.ScalarNode, Value: text}
}

func equalNumber(n *yaml.Node, v float64) bool {
	if n.Kind != yaml.ScalarNode || isNull(n) {
		return false
	}
	var cur float64
	if err := n.Decode(&cur); err != nil {
		return false
	}
	return cur == v
}

func encodeDocument(doc *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
