// pkg/types/common.go
package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Hash 代表内容摘要 (SHA256 Hex String)，manifest 与 catalog 共用
// 这是一个“值对象”，应当是不可变的。
type Hash string

func (h Hash) String() string { return string(h) }

func (h Hash) IsZero() bool  { return h == "" }
func (h Hash) IsValid() bool { return len(h) == 64 } // 简单的长度检查

// Short 返回前 8 位，用于终端展示
func (h Hash) Short() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}

// Path 是仓库内的位置：相对于根目录的一串名字段
// 两个 Path 相等，当且仅当它们的段序列相等。
type Path struct {
	segments []string
}

// Root 返回根路径 ("/")
func Root() Path { return Path{} }

// ParsePath 解析斜杠分隔的路径
// 空段和 "." 会被忽略；".." 会逃出根目录，直接拒绝
func ParsePath(s string) (Path, error) {
	var segs []string
	for _, part := range strings.Split(s, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return Path{}, fmt.Errorf("%w: %q escapes the root", ErrInvalidPath, s)
		}
		if err := ValidateName(part); err != nil {
			return Path{}, err
		}
		segs = append(segs, part)
	}
	return Path{segments: segs}, nil
}

// MustParsePath 用于常量路径 (测试和默认值)
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateName 检查单个节点名是否合法
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidPath, name)
	}
	if strings.ContainsAny(name, "/\\\x00") || !utf8.ValidString(name) {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidPath, name)
	}
	return nil
}

// Segments 返回段的副本，调用者修改不会影响 Path 本身
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

func (p Path) IsRoot() bool { return len(p.segments) == 0 }

// Name 是最后一段；根路径的名字是 "/"
func (p Path) Name() string {
	if p.IsRoot() {
		return "/"
	}
	return p.segments[len(p.segments)-1]
}

// Parent 返回上一级；根的父节点仍是根
func (p Path) Parent() Path {
	if p.IsRoot() {
		return p
	}
	return Path{segments: p.Segments()[:len(p.segments)-1]}
}

// Join 追加一个子节点名 (不做校验，调用方负责 ValidateName)
func (p Path) Join(name string) Path {
	segs := make([]string, len(p.segments), len(p.segments)+1)
	copy(segs, p.segments)
	return Path{segments: append(segs, name)}
}

func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// String 返回绝对形式，例如 "/a/b"，根是 "/"
func (p Path) String() string {
	return "/" + strings.Join(p.segments, "/")
}

// Rel 返回存储后端使用的相对 key，例如 "a/b"，根是 ""
func (p Path) Rel() string {
	return strings.Join(p.segments, "/")
}

// File 返回节点目录下某个文件的相对 key (例如 "a/b/meta.yml")
func (p Path) File(name string) string {
	if p.IsRoot() {
		return name
	}
	return p.Rel() + "/" + name
}
