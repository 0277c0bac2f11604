package catalog

import (
	"time"

	"gorm.io/datatypes"
)

// DatasetRecord 是一个 dataset 在关系型数据库中的投影 (索引)
// 用于按 dtype、rank、属性搜索，而不必遍历整个仓库
type DatasetRecord struct {
	// Path 是主键，例如 "/session/lfp"
	Path string `gorm:"primaryKey;type:varchar(1024)"`

	Dtype        string `gorm:"index;type:varchar(8)"` // npy descr，例如 "<f8"
	Rank         int    `gorm:"index"`
	Order        string `gorm:"type:varchar(8)"`
	ElementCount int64

	// Shape: 例如 [2, 3]
	Shape datatypes.JSON

	// Attributes: 属性名 -> 展示字符串，例如 {"sample_rate": "30000 Hz"}
	Attributes datatypes.JSON

	// Digest 是 data.npy 的 SHA-256
	Digest string `gorm:"type:char(64)"`

	IndexedAt time.Time
}

// TableName 强制指定表名
func (DatasetRecord) TableName() string {
	return "datasets"
}
