package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"exdir/pkg/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRecordNotFound = fmt.Errorf("%w: dataset not in catalog", types.ErrNotFound)

// Repository 封装所有对 SQL 数据库的操作
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Upsert 写入或覆盖一条记录 (按 path 冲突时整行更新)
func (r *Repository) Upsert(ctx context.Context, rec *DatasetRecord) error {
	if rec.IndexedAt.IsZero() {
		rec.IndexedAt = time.Now().UTC()
	}
	err := r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to index dataset %s: %w", rec.Path, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, path string) (*DatasetRecord, error) {
	var rec DatasetRecord
	err := r.db.GetConn().WithContext(ctx).
		Where("path = ?", path).
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByDtype 按 npy descr 查询 (例如 "<f8")
func (r *Repository) FindByDtype(ctx context.Context, descr string, limit int) ([]DatasetRecord, error) {
	var recs []DatasetRecord
	err := r.query(ctx, limit).Where("dtype = ?", descr).Find(&recs).Error
	return recs, err
}

func (r *Repository) FindByRank(ctx context.Context, rank int, limit int) ([]DatasetRecord, error) {
	var recs []DatasetRecord
	err := r.query(ctx, limit).Where("rank = ?", rank).Find(&recs).Error
	return recs, err
}

// FindUnder 列出某个 group 下的所有记录
func (r *Repository) FindUnder(ctx context.Context, prefix types.Path, limit int) ([]DatasetRecord, error) {
	var recs []DatasetRecord
	q := r.query(ctx, limit)
	if !prefix.IsRoot() {
		q = q.Where("path LIKE ? ESCAPE '\\'", escapeLike(prefix.String())+"/%")
	}
	err := q.Find(&recs).Error
	return recs, err
}

// Delete 删除一条记录；不存在时不报错
func (r *Repository) Delete(ctx context.Context, path string) error {
	return r.db.GetConn().WithContext(ctx).
		Where("path = ?", path).
		Delete(&DatasetRecord{}).Error
}

// Prune 删除 keep 之外的所有记录，返回删除的条数
func (r *Repository) Prune(ctx context.Context, keep []string) (int64, error) {
	q := r.db.GetConn().WithContext(ctx)
	if len(keep) > 0 {
		q = q.Where("path NOT IN ?", keep)
	} else {
		q = q.Where("1 = 1")
	}
	result := q.Delete(&DatasetRecord{})
	return result.RowsAffected, result.Error
}

func (r *Repository) query(ctx context.Context, limit int) *gorm.DB {
	q := r.db.GetConn().WithContext(ctx).Order("path ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
