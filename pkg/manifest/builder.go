package manifest

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"exdir/pkg/attrs"
	"exdir/pkg/exdir"
	"exdir/pkg/ignore"
	"exdir/pkg/types"

	"golang.org/x/sync/errgroup"
)

// Builder 负责把一棵子树转换为 Merkle manifest
type Builder struct {
	matcher     *ignore.Matcher
	concurrency int
}

type Option func(*Builder)

// WithMatcher 设置忽略规则；被忽略的节点不出现在 manifest 中
func WithMatcher(m *ignore.Matcher) Option {
	return func(b *Builder) { b.matcher = m }
}

// WithConcurrency 限制每一层同时处理的子节点数量
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build 执行构建过程，返回以 n 为根的 manifest 树
func (b *Builder) Build(ctx context.Context, n exdir.Node) (*Tree, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidNode, n.Path())
	}
	return b.buildNode(ctx, n)
}

// buildNode 自底向上计算 Hash (核心算法)
func (b *Builder) buildNode(ctx context.Context, n exdir.Node) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := &Entry{TypeVal: EntryType, Kind: n.Kind().String()}

	attrsLink, err := blobLink(ctx, n, n.Path().File(attrs.FileName))
	if err != nil {
		return nil, err
	}
	entry.Attrs = attrsLink

	var children []*Tree
	switch {
	case n.Kind() == exdir.KindDataset:
		if err := b.fillDataset(ctx, n, entry); err != nil {
			return nil, err
		}
	case n.IsContainer():
		children, err = b.buildChildren(ctx, n)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			entry.Children = append(entry.Children, Child{
				Name: c.Path.Name(),
				Kind: c.Entry.Kind,
				Hash: NewLink(c.Hash),
			})
		}
	}

	h, raw, err := CalculateHash(entry)
	if err != nil {
		return nil, err
	}
	return &Tree{Hash: h, Path: n.Path(), Entry: entry, Raw: raw, Children: children}, nil
}

// buildChildren 并发处理子节点，结果保持 Keys 的顺序
// 为了保证 Hash 的确定性，子节点必须按名字排序
func (b *Builder) buildChildren(ctx context.Context, n exdir.Node) ([]*Tree, error) {
	nodes, err := n.Children(ctx)
	if err != nil {
		return nil, err
	}

	var kept []exdir.Node
	for _, c := range nodes {
		if !c.Valid() || b.matcher.Matches(c.Path()) {
			continue
		}
		kept = append(kept, c)
	}

	out := make([]*Tree, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, c := range kept {
		g.Go(func() error {
			t, err := b.buildNode(gctx, c)
			if err != nil {
				return fmt.Errorf("failed to build %s: %w", c.Path(), err)
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) fillDataset(ctx context.Context, n exdir.Node, entry *Entry) error {
	h, err := n.Header(ctx)
	if err != nil {
		return err
	}
	entry.Dtype = h.Dtype.Descr()
	entry.Shape = h.Shape
	entry.Order = exdir.OrderC.String()
	if h.Fortran {
		entry.Order = exdir.OrderFortran.String()
	}

	link, err := blobLink(ctx, n, n.Path().File(exdir.DataFile))
	if err != nil {
		return err
	}
	if link == nil {
		return fmt.Errorf("%w: %s has no %s", types.ErrNotFound, n.Path(), exdir.DataFile)
	}
	entry.Data = link
	return nil
}

// blobLink 读取文件并返回指向其内容 hash 的 Link；文件不存在返回 nil
func blobLink(ctx context.Context, n exdir.Node, name string) (*Link, error) {
	data, err := n.File().Backend().ReadFile(ctx, name)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	link := NewLink(BlobHash(data))
	return &link, nil
}
