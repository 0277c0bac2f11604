package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"exdir/pkg/types"

	"github.com/x448/float16"
)

// Policy 决定磁盘类型和请求类型不一致时怎么办
type Policy uint8

const (
	AllowLossy Policy = iota
	RequireExactType
)

func (p Policy) String() string {
	if p == RequireExactType {
		return "exact"
	}
	return "lossy"
}

// ParsePolicy 解析配置里的 "lossy" / "exact"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lossy", "allow-lossy":
		return AllowLossy, nil
	case "exact", "require-exact", "strict":
		return RequireExactType, nil
	}
	return AllowLossy, fmt.Errorf("unknown conversion policy %q", s)
}

// ConvertFunc 把 src 中的每个元素转换后写入 dst
// dst 的长度必须是 元素数 * 目标宽度
type ConvertFunc func(dst, src []byte)

// carrier 是转换的中间表示，只有与 kind 对应的字段有效
type carrier struct {
	kind Kind
	f    float64
	i    int64
	u    uint64
}

func (c carrier) asFloat() float64 {
	switch c.kind {
	case KindSignedInt:
		return float64(c.i)
	case KindUnsignedInt:
		return float64(c.u)
	}
	return c.f
}

func (c carrier) asInt() int64 {
	switch c.kind {
	case KindSignedInt:
		return c.i
	case KindUnsignedInt:
		return int64(c.u)
	}
	return floatToInt64(c.f)
}

func (c carrier) asUint() uint64 {
	switch c.kind {
	case KindSignedInt:
		return uint64(c.i)
	case KindUnsignedInt:
		return c.u
	}
	return floatToUint64(c.f)
}

// Go 对越界的 float->int 转换没有定义结果，这里做饱和处理，NaN 视为 0
func floatToInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func floatToUint64(f float64) uint64 {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(f)
}

type loadFunc func(b []byte) carrier
type storeFunc func(b []byte, c carrier)

var le = binary.LittleEndian

func loader(d Dtype) loadFunc {
	switch d {
	case Float16:
		return func(b []byte) carrier {
			return carrier{kind: KindFloat, f: float64(float16.Frombits(le.Uint16(b)).Float32())}
		}
	case Float32:
		return func(b []byte) carrier {
			return carrier{kind: KindFloat, f: float64(math.Float32frombits(le.Uint32(b)))}
		}
	case Float64:
		return func(b []byte) carrier {
			return carrier{kind: KindFloat, f: math.Float64frombits(le.Uint64(b))}
		}
	case Int8:
		return func(b []byte) carrier { return carrier{kind: KindSignedInt, i: int64(int8(b[0]))} }
	case Int16:
		return func(b []byte) carrier { return carrier{kind: KindSignedInt, i: int64(int16(le.Uint16(b)))} }
	case Int32:
		return func(b []byte) carrier { return carrier{kind: KindSignedInt, i: int64(int32(le.Uint32(b)))} }
	case Int64:
		return func(b []byte) carrier { return carrier{kind: KindSignedInt, i: int64(le.Uint64(b))} }
	case Uint8:
		return func(b []byte) carrier { return carrier{kind: KindUnsignedInt, u: uint64(b[0])} }
	case Uint16:
		return func(b []byte) carrier { return carrier{kind: KindUnsignedInt, u: uint64(le.Uint16(b))} }
	case Uint32:
		return func(b []byte) carrier { return carrier{kind: KindUnsignedInt, u: uint64(le.Uint32(b))} }
	case Uint64:
		return func(b []byte) carrier { return carrier{kind: KindUnsignedInt, u: le.Uint64(b)} }
	}
	return nil
}

func storer(d Dtype) storeFunc {
	switch d {
	case Float16:
		return func(b []byte, c carrier) { le.PutUint16(b, float16.Fromfloat32(float32(c.asFloat())).Bits()) }
	case Float32:
		return func(b []byte, c carrier) { le.PutUint32(b, math.Float32bits(float32(c.asFloat()))) }
	case Float64:
		return func(b []byte, c carrier) { le.PutUint64(b, math.Float64bits(c.asFloat())) }
	case Int8:
		return func(b []byte, c carrier) { b[0] = byte(int8(c.asInt())) }
	case Int16:
		return func(b []byte, c carrier) { le.PutUint16(b, uint16(int16(c.asInt()))) }
	case Int32:
		return func(b []byte, c carrier) { le.PutUint32(b, uint32(int32(c.asInt()))) }
	case Int64:
		return func(b []byte, c carrier) { le.PutUint64(b, uint64(c.asInt())) }
	case Uint8:
		return func(b []byte, c carrier) { b[0] = byte(c.asUint()) }
	case Uint16:
		return func(b []byte, c carrier) { le.PutUint16(b, uint16(c.asUint())) }
	case Uint32:
		return func(b []byte, c carrier) { le.PutUint32(b, uint32(c.asUint())) }
	case Uint64:
		return func(b []byte, c carrier) { le.PutUint64(b, c.asUint()) }
	}
	return nil
}

type pair struct{ src, dst Dtype }

// table 在 init 时生成一次：所有数值类型两两之间 (不含 bool)
var table = buildTable()

func buildTable() map[pair]ConvertFunc {
	t := make(map[pair]ConvertFunc)
	for _, src := range All() {
		for _, dst := range All() {
			if src == dst || src.Kind == KindByte || dst.Kind == KindByte {
				continue
			}
			load, store := loader(src), storer(dst)
			sw, dw := src.Width, dst.Width
			t[pair{src, dst}] = func(out, in []byte) {
				n := len(in) / sw
				for i := 0; i < n; i++ {
					store(out[i*dw:(i+1)*dw], load(in[i*sw:(i+1)*sw]))
				}
			}
		}
	}
	return t
}

// Lookup 返回 src -> dst 的转换函数
// 1. 类型完全一致：返回 nil，调用方直接按字节解释
// 2. 不一致且要求精确类型：TypeMismatch
// 3. 不一致且允许有损：查表，没有条目就是 UnsupportedConversion
func Lookup(src, dst Dtype, p Policy) (ConvertFunc, error) {
	if !src.Valid() || !dst.Valid() {
		return nil, fmt.Errorf("%w: %s -> %s", types.ErrUnsupportedConversion, src, dst)
	}
	if src == dst {
		return nil, nil
	}
	if p == RequireExactType {
		return nil, fmt.Errorf("%w: stored %s, requested %s", types.ErrTypeMismatch, src, dst)
	}
	fn, ok := table[pair{src, dst}]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", types.ErrUnsupportedConversion, src, dst)
	}
	return fn, nil
}

// Convert 把一段 src 编码的原始字节转成 dst 编码
// 类型一致时原样返回，不复制
func Convert(raw []byte, src, dst Dtype, p Policy) ([]byte, error) {
	fn, err := Lookup(src, dst, p)
	if err != nil {
		return nil, err
	}
	if len(raw)%src.Width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %s elements", types.ErrIO, len(raw), src)
	}
	if fn == nil {
		return raw, nil
	}
	out := make([]byte, len(raw)/src.Width*dst.Width)
	fn(out, raw)
	return out, nil
}
