package ignore

import (
	"context"
	"errors"
	"strings"

	"exdir/pkg/storage"
	"exdir/pkg/types"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName 是仓库根目录下的用户忽略规则文件
const FileName = ".exdignore"

// Matcher 封装了忽略逻辑
// 它负责判断一个节点是否应该被 manifest / catalog 的遍历跳过
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// 系统级默认忽略规则，强制生效
var defaultRules = []string{
	".git",

	// --- 常见垃圾文件 ---
	".DS_Store", // macOS
	"Thumbs.db", // Windows
	"__pycache__",
	".ipynb_checkpoints",
}

// NewMatcher 初始化忽略匹配器
// 如果仓库根目录有 .exdignore，就把它和默认规则合并编译
func NewMatcher(ctx context.Context, backend storage.Backend) (*Matcher, error) {
	rules := append([]string(nil), defaultRules...)

	data, err := backend.ReadFile(ctx, FileName)
	switch {
	case err == nil:
		rules = append(rules, strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")...)
	case errors.Is(err, types.ErrNotFound):
		// 没有用户规则，仅用默认规则
	default:
		return nil, err
	}

	return &Matcher{ignorer: gitignore.CompileIgnoreLines(rules...)}, nil
}

// NewFromLines 直接用给定规则 (加上默认规则) 构造
func NewFromLines(lines ...string) *Matcher {
	rules := append(append([]string(nil), defaultRules...), lines...)
	return &Matcher{ignorer: gitignore.CompileIgnoreLines(rules...)}
}

// Matches 检查节点路径是否匹配忽略规则
// 返回: true 表示应该忽略 (Skip), false 表示应该保留 (Keep)
func (m *Matcher) Matches(p types.Path) bool {
	if m == nil || m.ignorer == nil || p.IsRoot() {
		return false
	}
	return m.ignorer.MatchesPath(p.Rel())
}
