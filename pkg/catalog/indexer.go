package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"exdir/pkg/exdir"
	"exdir/pkg/ignore"
	"exdir/pkg/manifest"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// Indexer 遍历仓库，把每个 dataset 投影成一条 DatasetRecord
type Indexer struct {
	repo        *Repository
	matcher     *ignore.Matcher
	concurrency int
}

func NewIndexer(repo *Repository, matcher *ignore.Matcher) *Indexer {
	return &Indexer{repo: repo, matcher: matcher, concurrency: runtime.NumCPU()}
}

// Stats 是一次索引的结果
type Stats struct {
	Indexed int
	Pruned  int64
}

// Index 索引 root 下的所有 dataset
// prune=true 时删除目录中存在、但这次遍历没有见到的记录
func (ix *Indexer) Index(ctx context.Context, root exdir.Node, prune bool) (Stats, error) {
	var datasets []exdir.Node
	err := exdir.Walk(ctx, root, func(n exdir.Node) error {
		if ix.matcher.Matches(n.Path()) {
			return exdir.SkipNode
		}
		if n.Kind() == exdir.KindDataset {
			datasets = append(datasets, n)
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	// 1. 并发读取文件头并计算摘要
	records := make([]*DatasetRecord, len(datasets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for i, n := range datasets {
		g.Go(func() error {
			rec, err := BuildRecord(gctx, n)
			if err != nil {
				return fmt.Errorf("failed to index %s: %w", n.Path(), err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	// 2. 串行写入数据库
	keep := make([]string, 0, len(records))
	for _, rec := range records {
		if err := ix.repo.Upsert(ctx, rec); err != nil {
			return Stats{}, err
		}
		keep = append(keep, rec.Path)
	}

	stats := Stats{Indexed: len(records)}
	if prune {
		pruned, err := ix.repo.Prune(ctx, keep)
		if err != nil {
			return stats, err
		}
		stats.Pruned = pruned
	}

	slog.Info("catalog indexed",
		slog.String("root", root.Path().String()),
		slog.Int("datasets", stats.Indexed),
		slog.Int64("pruned", stats.Pruned),
	)
	return stats, nil
}

// BuildRecord 读取单个 dataset 的元信息
func BuildRecord(ctx context.Context, n exdir.Node) (*DatasetRecord, error) {
	h, err := n.Header(ctx)
	if err != nil {
		return nil, err
	}
	data, err := n.File().Backend().ReadFile(ctx, n.Path().File(exdir.DataFile))
	if err != nil {
		return nil, err
	}
	set, err := n.Attributes(ctx)
	if err != nil {
		return nil, err
	}

	shape := h.Shape
	if shape == nil {
		shape = []int{}
	}
	shapeJSON, err := json.Marshal(shape)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shape: %w", err)
	}

	display := make(map[string]string, set.Len())
	for _, v := range set.All() {
		display[v.Name] = v.DisplayString()
	}
	attrsJSON, err := json.Marshal(display)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}

	order := exdir.OrderC
	if h.Fortran {
		order = exdir.OrderFortran
	}

	return &DatasetRecord{
		Path:         n.Path().String(),
		Dtype:        h.Dtype.Descr(),
		Rank:         h.Rank(),
		Order:        order.String(),
		ElementCount: int64(h.ElementCount()),
		Shape:        datatypes.JSON(shapeJSON),
		Attributes:   datatypes.JSON(attrsJSON),
		Digest:       manifest.BlobHash(data).String(),
		IndexedAt:    time.Now().UTC(),
	}, nil
}
