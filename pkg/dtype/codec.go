package dtype

import (
	"fmt"
	"math"

	"exdir/pkg/types"

	"github.com/x448/float16"
)

// Decode 把小端原始字节按 T 解释
func Decode[T Element](raw []byte) ([]T, error) {
	d := Of[T]()
	if len(raw)%d.Width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %s elements", types.ErrIO, len(raw), d)
	}
	out := make([]T, len(raw)/d.Width)

	switch s := any(out).(type) {
	case []bool:
		for i := range s {
			s[i] = raw[i] != 0
		}
	case []int8:
		for i := range s {
			s[i] = int8(raw[i])
		}
	case []int16:
		for i := range s {
			s[i] = int16(le.Uint16(raw[i*2:]))
		}
	case []int32:
		for i := range s {
			s[i] = int32(le.Uint32(raw[i*4:]))
		}
	case []int64:
		for i := range s {
			s[i] = int64(le.Uint64(raw[i*8:]))
		}
	case []uint8:
		copy(s, raw)
	case []uint16:
		for i := range s {
			s[i] = le.Uint16(raw[i*2:])
		}
	case []uint32:
		for i := range s {
			s[i] = le.Uint32(raw[i*4:])
		}
	case []uint64:
		for i := range s {
			s[i] = le.Uint64(raw[i*8:])
		}
	case []float16.Float16:
		for i := range s {
			s[i] = float16.Frombits(le.Uint16(raw[i*2:]))
		}
	case []float32:
		for i := range s {
			s[i] = math.Float32frombits(le.Uint32(raw[i*4:]))
		}
	case []float64:
		for i := range s {
			s[i] = math.Float64frombits(le.Uint64(raw[i*8:]))
		}
	}
	return out, nil
}

// Encode 是 Decode 的逆过程
func Encode[T Element](elems []T) []byte {
	d := Of[T]()
	raw := make([]byte, len(elems)*d.Width)

	switch s := any(elems).(type) {
	case []bool:
		for i, v := range s {
			if v {
				raw[i] = 1
			}
		}
	case []int8:
		for i, v := range s {
			raw[i] = byte(v)
		}
	case []int16:
		for i, v := range s {
			le.PutUint16(raw[i*2:], uint16(v))
		}
	case []int32:
		for i, v := range s {
			le.PutUint32(raw[i*4:], uint32(v))
		}
	case []int64:
		for i, v := range s {
			le.PutUint64(raw[i*8:], uint64(v))
		}
	case []uint8:
		copy(raw, s)
	case []uint16:
		for i, v := range s {
			le.PutUint16(raw[i*2:], v)
		}
	case []uint32:
		for i, v := range s {
			le.PutUint32(raw[i*4:], v)
		}
	case []uint64:
		for i, v := range s {
			le.PutUint64(raw[i*8:], v)
		}
	case []float16.Float16:
		for i, v := range s {
			le.PutUint16(raw[i*2:], v.Bits())
		}
	case []float32:
		for i, v := range s {
			le.PutUint32(raw[i*4:], math.Float32bits(v))
		}
	case []float64:
		for i, v := range s {
			le.PutUint64(raw[i*8:], math.Float64bits(v))
		}
	}
	return raw
}

// DecodeAs 先按策略把 raw 从 src 转到 T 的 dtype，再解释成 []T
func DecodeAs[T Element](raw []byte, src Dtype, p Policy) ([]T, error) {
	conv, err := Convert(raw, src, Of[T](), p)
	if err != nil {
		return nil, err
	}
	return Decode[T](conv)
}

// EncodeAs 把 []T 编码后按策略转成 dst
func EncodeAs[T Element](elems []T, dst Dtype, p Policy) ([]byte, error) {
	return Convert(Encode(elems), Of[T](), dst, p)
}
