package exdir

import (
	"context"
	"errors"
)

// SkipNode 由 WalkFunc 返回时跳过当前节点的子树
var SkipNode = errors.New("skip this node")

// WalkFunc 对每个有效节点调用一次
type WalkFunc func(n Node) error

// Walk 深度优先遍历 root 以及它下面的所有有效节点 (按 Keys 顺序)
// 没有 sidecar 的子目录被跳过
func Walk(ctx context.Context, root Node, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(root); err != nil {
		if errors.Is(err, SkipNode) {
			return nil
		}
		return err
	}
	if !root.IsContainer() {
		return nil
	}

	children, err := root.Children(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		if !child.Valid() {
			continue
		}
		if err := Walk(ctx, child, fn); err != nil {
			return err
		}
	}
	return nil
}
