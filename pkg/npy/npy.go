// Package npy reads and writes numpy's *.npy array format.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"exdir/pkg/dtype"
	"exdir/pkg/types"
)

// Magic 是文件的前 6 个字节
var Magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// npy file header must be a multiple of 64 bytes
const headerUnits = 64

// magic(6) + version(2) + v1.0 长度字段(2)
const preambleV1 = 10

// 所有格式错误都包装 types.ErrFormat
var (
	ErrMagicMismatch        = fmt.Errorf("%w: magic mismatch", types.ErrFormat)
	ErrUnsupportedVersion   = fmt.Errorf("%w: unsupported version", types.ErrFormat)
	ErrBigEndianUnsupported = fmt.Errorf("%w: big-endian data unsupported", types.ErrFormat)
	ErrHeaderParse          = fmt.Errorf("%w: header parse error", types.ErrFormat)
	ErrUnsupportedDtype     = fmt.Errorf("%w: unsupported dtype", types.ErrFormat)
)

// Array 是一个完整的 npy 文件：头 + 原始小端数据
// Data 按 Header.Fortran 声明的顺序排列
type Array struct {
	Header
	Data []byte
}

// New 校验数据长度后构造 Array
func New(d dtype.Dtype, shape []int, fortran bool, data []byte) (*Array, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDtype, d)
	}
	h := Header{Dtype: d, Fortran: fortran, Shape: append([]int{}, shape...)}
	if err := checkShape(h.Shape, d.Width); err != nil {
		return nil, err
	}
	if len(data) != h.DataSize() {
		return nil, fmt.Errorf("%w: shape %v of %s needs %d bytes, have %d",
			types.ErrIO, shape, d, h.DataSize(), len(data))
	}
	return &Array{Header: h, Data: data}, nil
}

// checkShape 保证 product(shape) * width 不溢出 int
func checkShape(shape []int, width int) error {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in %v", ErrHeaderParse, shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return fmt.Errorf("%w: shape %v overflows", ErrHeaderParse, shape)
		}
		n *= d
	}
	if width > 0 && n > math.MaxInt/width {
		return fmt.Errorf("%w: shape %v overflows", ErrHeaderParse, shape)
	}
	return nil
}

// ReadHeader 只读取文件头，r 停在数据区开头
func ReadHeader(r io.Reader) (Header, error) {
	// 1. Magic
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return Header{}, fmt.Errorf("%w: reading magic: %v", types.ErrIO, err)
	}
	if !bytes.Equal(magic, Magic) {
		return Header{}, fmt.Errorf("%w: got % x", ErrMagicMismatch, magic)
	}

	// 2. 版本号
	var version [2]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return Header{}, fmt.Errorf("%w: reading version: %v", types.ErrIO, err)
	}

	// 3. 头长度：1.0 是 uint16，2.0 是 uint32
	var headerLen int
	switch version {
	case [2]byte{1, 0}:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Header{}, fmt.Errorf("%w: reading header length: %v", types.ErrIO, err)
		}
		headerLen = int(n)
	case [2]byte{2, 0}:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Header{}, fmt.Errorf("%w: reading header length: %v", types.ErrIO, err)
		}
		headerLen = int(n)
	default:
		return Header{}, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, version[0], version[1])
	}

	// 4. 头部文本
	text := make([]byte, headerLen)
	if _, err := io.ReadFull(r, text); err != nil {
		return Header{}, fmt.Errorf("%w: reading header: %v", types.ErrIO, err)
	}
	h, err := parseHeaderText(string(text))
	if err != nil {
		return Header{}, err
	}
	if err := checkShape(h.Shape, h.Dtype.Width); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Read 读取整个数组
// 数据区长度必须严格等于 shape 和 dtype 算出来的大小
func Read(r io.Reader) (*Array, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	// 不按头部声明的大小预分配，内存只随实际存在的字节增长
	want := h.DataSize()
	data, err := io.ReadAll(io.LimitReader(r, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading data: %v", types.ErrIO, err)
	}
	switch {
	case len(data) < want:
		return nil, fmt.Errorf("%w: data shorter than shape %v of %s", types.ErrIO, h.Shape, h.Dtype)
	case len(data) > want:
		return nil, fmt.Errorf("%w: data longer than shape %v of %s", types.ErrIO, h.Shape, h.Dtype)
	}

	return &Array{Header: h, Data: data}, nil
}

// Write 写出 1.0 版本的 npy 文件
func Write(w io.Writer, arr *Array) error {
	if !arr.Dtype.Valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedDtype, arr.Dtype)
	}
	if err := checkShape(arr.Shape, arr.Dtype.Width); err != nil {
		return err
	}
	if len(arr.Data) != arr.DataSize() {
		return fmt.Errorf("%w: shape %v of %s needs %d bytes, have %d",
			types.ErrIO, arr.Shape, arr.Dtype, arr.DataSize(), len(arr.Data))
	}

	header, err := EncodeHeader(arr.Header)
	if err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w: writing header: %v", types.ErrIO, err)
	}
	if _, err := w.Write(arr.Data); err != nil {
		return fmt.Errorf("%w: writing data: %v", types.ErrIO, err)
	}
	return nil
}

// EncodeHeader 生成 magic + 版本 + 长度 + 头部文本
// 用空格填充并以 '\n' 结尾，总长度是 64 的倍数
func EncodeHeader(h Header) ([]byte, error) {
	text := formatHeaderText(h)

	total := (preambleV1 + len(text) + 1 + headerUnits - 1) / headerUnits * headerUnits
	headerLen := total - preambleV1
	if headerLen > math.MaxUint16 {
		return nil, fmt.Errorf("%w: header of %d bytes does not fit a 1.0 file", ErrHeaderParse, headerLen)
	}

	buf := make([]byte, 0, total)
	buf = append(buf, Magic...)
	buf = append(buf, 1, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(headerLen))
	buf = append(buf, text...)
	for len(buf) < total-1 {
		buf = append(buf, ' ')
	}
	buf = append(buf, '\n')
	return buf, nil
}
