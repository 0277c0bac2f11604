package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"exdir/pkg/types"

	"github.com/fxamacker/cbor/v2"
)

// 定义符合 DAG-CBOR 规范的编码选项
var encOptions = cbor.EncOptions{
	// 1. 强制 Map Key 排序 (Canonical)
	// 保证相同的子树生成唯一的 Hash
	Sort: cbor.SortCanonical,

	// 2. 浮点数必须使用64位表示
	ShortestFloat: cbor.ShortestFloatNone,

	// 3. 禁止不定长编码 (Indefinite Length)
	IndefLength: cbor.IndefLengthForbidden,

	BigIntConvert: cbor.BigIntConvertShortest,
}

// 全局复用的编码模式
var em, _ = encOptions.EncMode()

var decOptions = cbor.DecOptions{
	// --- 安全性配置 ---
	// 限制容器元素数量和嵌套深度
	MaxArrayElements: 100000,
	MaxMapPairs:      10000,
	MaxNestedLevels:  100,

	// --- 规范性配置 ---
	IndefLength: cbor.IndefLengthForbidden,
	DupMapKey:   cbor.DupMapKeyEnforcedAPF,
	BignumTag:   cbor.BignumTagForbidden,
}

var dm, _ = decOptions.DecMode()

// CalculateHash 计算条目的 Hash 和序列化数据
func CalculateHash(v any) (types.Hash, []byte, error) {
	data, err := em.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal entry: %w", err)
	}
	return BlobHash(data), data, nil
}

// BlobHash 计算原始字节 (data.npy / attributes.yml) 的 SHA-256
func BlobHash(data []byte) types.Hash {
	sum := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(sum[:]))
}

// Decode 通用的解码函数
func Decode(data []byte, v any) error {
	return dm.Unmarshal(data, v)
}
