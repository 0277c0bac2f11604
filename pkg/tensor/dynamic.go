package tensor

import (
	"fmt"

	"exdir/pkg/dtype"
	"exdir/pkg/npy"
	"exdir/pkg/types"

	"github.com/x448/float16"
)

// DecodeAny 按数组自己的 dtype 解码，返回逻辑行优先的 []T (包在 any 里)
// 用于上层在运行时才知道 dtype 的场景
func DecodeAny(arr *npy.Array, p dtype.Policy) (any, error) {
	switch arr.Dtype {
	case dtype.Bool:
		return elementsOf[bool](arr, p)
	case dtype.Int8:
		return elementsOf[int8](arr, p)
	case dtype.Int16:
		return elementsOf[int16](arr, p)
	case dtype.Int32:
		return elementsOf[int32](arr, p)
	case dtype.Int64:
		return elementsOf[int64](arr, p)
	case dtype.Uint8:
		return elementsOf[uint8](arr, p)
	case dtype.Uint16:
		return elementsOf[uint16](arr, p)
	case dtype.Uint32:
		return elementsOf[uint32](arr, p)
	case dtype.Uint64:
		return elementsOf[uint64](arr, p)
	case dtype.Float16:
		return elementsOf[float16.Float16](arr, p)
	case dtype.Float32:
		return elementsOf[float32](arr, p)
	case dtype.Float64:
		return elementsOf[float64](arr, p)
	}
	return nil, fmt.Errorf("%w: %s", npy.ErrUnsupportedDtype, arr.Dtype)
}

func elementsOf[T dtype.Element](arr *npy.Array, p dtype.Policy) (any, error) {
	c, err := FromArray[T](arr, p)
	if err != nil {
		return nil, err
	}
	return c.Elements(), nil
}

// EncodeAny 是 DecodeAny 的逆过程：elems 必须是某种 []T
// 元素类型与 dst 不一致时按策略转换
func EncodeAny(elems any, shape []int, dst dtype.Dtype, fortran bool, p dtype.Policy) (*npy.Array, error) {
	switch s := elems.(type) {
	case []bool:
		return encode(s, shape, dst, fortran, p)
	case []int8:
		return encode(s, shape, dst, fortran, p)
	case []int16:
		return encode(s, shape, dst, fortran, p)
	case []int32:
		return encode(s, shape, dst, fortran, p)
	case []int64:
		return encode(s, shape, dst, fortran, p)
	case []uint8:
		return encode(s, shape, dst, fortran, p)
	case []uint16:
		return encode(s, shape, dst, fortran, p)
	case []uint32:
		return encode(s, shape, dst, fortran, p)
	case []uint64:
		return encode(s, shape, dst, fortran, p)
	case []float16.Float16:
		return encode(s, shape, dst, fortran, p)
	case []float32:
		return encode(s, shape, dst, fortran, p)
	case []float64:
		return encode(s, shape, dst, fortran, p)
	}
	return nil, fmt.Errorf("%w: unsupported element slice %T", types.ErrTypeMismatch, elems)
}

func encode[T dtype.Element](elems []T, shape []int, dst dtype.Dtype, fortran bool, p dtype.Policy) (*npy.Array, error) {
	c, err := FromElements(shape, elems)
	if err != nil {
		return nil, err
	}
	return ToArray(c, dst, fortran, p)
}
