// pkg/dtype/dtype.go
package dtype

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/x448/float16"
)

var (
	ErrInvalidDescr = errors.New("invalid dtype descriptor")
	ErrInvalidDtype = errors.New("invalid dtype")
)

// Kind 是元素的逻辑类别
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFloat
	KindSignedInt
	KindUnsignedInt
	KindByte // numpy 的 b1，按布尔字节处理
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindSignedInt:
		return "int"
	case KindUnsignedInt:
		return "uint"
	case KindByte:
		return "bool"
	default:
		return "invalid"
	}
}

// letter 是 descr 里的类型字母
func (k Kind) letter() byte {
	switch k {
	case KindFloat:
		return 'f'
	case KindSignedInt:
		return 'i'
	case KindUnsignedInt:
		return 'u'
	case KindByte:
		return 'b'
	}
	return '?'
}

// Dtype = (Kind, Width)，Width 单位是字节
type Dtype struct {
	Kind  Kind
	Width int
}

// 所有合法的 Dtype
var (
	Float16 = Dtype{KindFloat, 2}
	Float32 = Dtype{KindFloat, 4}
	Float64 = Dtype{KindFloat, 8}
	Int8    = Dtype{KindSignedInt, 1}
	Int16   = Dtype{KindSignedInt, 2}
	Int32   = Dtype{KindSignedInt, 4}
	Int64   = Dtype{KindSignedInt, 8}
	Uint8   = Dtype{KindUnsignedInt, 1}
	Uint16  = Dtype{KindUnsignedInt, 2}
	Uint32  = Dtype{KindUnsignedInt, 4}
	Uint64  = Dtype{KindUnsignedInt, 8}
	Bool    = Dtype{KindByte, 1}
)

// All 按固定顺序列出所有合法 Dtype (测试和表生成都用它)
func All() []Dtype {
	return []Dtype{
		Float16, Float32, Float64,
		Int8, Int16, Int32, Int64,
		Uint8, Uint16, Uint32, Uint64,
		Bool,
	}
}

// Valid 检查 (Kind, Width) 是否是支持的组合
func (d Dtype) Valid() bool {
	switch d.Kind {
	case KindFloat:
		return d.Width == 2 || d.Width == 4 || d.Width == 8
	case KindSignedInt, KindUnsignedInt:
		return d.Width == 1 || d.Width == 2 || d.Width == 4 || d.Width == 8
	case KindByte:
		return d.Width == 1
	}
	return false
}

// String 返回 Go 风格的名字：float64, int32, uint8, bool
func (d Dtype) String() string {
	if !d.Valid() {
		return fmt.Sprintf("invalid(%s%d)", d.Kind, d.Width)
	}
	if d.Kind == KindByte {
		return "bool"
	}
	return d.Kind.String() + strconv.Itoa(d.Width*8)
}

// Descr 返回 numpy 的类型标记，例如 "<f8"、"|u1"、"|b1"
// 单字节类型没有字节序，用 '|'
func (d Dtype) Descr() string {
	endian := byte(LittleEndian)
	if d.Width == 1 {
		endian = byte(NotApplicable)
	}
	return string([]byte{endian, d.Kind.letter()}) + strconv.Itoa(d.Width)
}

// Endian 是 descr 的第一个字符
type Endian byte

const (
	LittleEndian  Endian = '<'
	BigEndian     Endian = '>'
	NotApplicable Endian = '|'
)

// ParseDescr 解析 "<endian><kind><width>"
// 字节序只做识别，是否支持由调用方 (npy) 决定
func ParseDescr(s string) (Dtype, Endian, error) {
	if len(s) < 3 {
		return Dtype{}, 0, fmt.Errorf("%w: %q", ErrInvalidDescr, s)
	}

	endian := Endian(s[0])
	switch endian {
	case LittleEndian, BigEndian, NotApplicable:
	default:
		return Dtype{}, 0, fmt.Errorf("%w: bad byte order in %q", ErrInvalidDescr, s)
	}

	var kind Kind
	switch s[1] {
	case 'f':
		kind = KindFloat
	case 'i':
		kind = KindSignedInt
	case 'u':
		kind = KindUnsignedInt
	case 'b':
		kind = KindByte
	default:
		return Dtype{}, endian, fmt.Errorf("%w: unknown kind %q in %q", ErrInvalidDtype, s[1], s)
	}

	width, err := strconv.Atoi(s[2:])
	if err != nil {
		return Dtype{}, endian, fmt.Errorf("%w: bad width in %q", ErrInvalidDescr, s)
	}

	d := Dtype{Kind: kind, Width: width}
	if !d.Valid() {
		return Dtype{}, endian, fmt.Errorf("%w: %q", ErrInvalidDtype, s)
	}
	return d, endian, nil
}

// Element 是所有可以直接映射到磁盘 dtype 的 Go 元素类型
type Element interface {
	bool |
		int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float16.Float16 | float32 | float64
}

// Of 返回 Go 元素类型对应的 Dtype
func Of[T Element]() Dtype {
	var zero T
	switch any(zero).(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float16.Float16:
		return Float16
	case float32:
		return Float32
	case float64:
		return Float64
	}
	// Element 约束保证不会走到这里
	panic("dtype: unreachable element type")
}

// Parse 接受名字 ("float64"、"bool") 或 descr ("<f8"、"|b1")
func Parse(s string) (Dtype, error) {
	for _, d := range All() {
		if s == d.String() {
			return d, nil
		}
	}
	d, endian, err := ParseDescr(s)
	if err != nil {
		return Dtype{}, err
	}
	if endian == BigEndian {
		return Dtype{}, fmt.Errorf("%w: big-endian %q", ErrInvalidDescr, s)
	}
	return d, nil
}
