package ignore

import (
	"context"
	"testing"

	"exdir/pkg/storage/disk"
	"exdir/pkg/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Defaults(t *testing.T) {
	// 1. 一个没有 .exdignore 的仓库
	backend := disk.NewAdapterFs(afero.NewMemMapFs())

	// 2. 初始化 Matcher
	matcher, err := NewMatcher(context.Background(), backend)
	require.NoError(t, err)

	// 3. 验证默认规则
	tests := []struct {
		path     string
		shouldIg bool
	}{
		{"/.git", true},
		{"/.git/objects", true}, // 子路径也应该被忽略
		{"/.DS_Store", true},
		{"/session/__pycache__", true},
		{"/session", false}, // 普通节点不应忽略
		{"/session/lfp", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.shouldIg, matcher.Matches(types.MustParsePath(tt.path)), "Path: %s", tt.path)
		})
	}
}

func TestMatcher_WithUserFile(t *testing.T) {
	ctx := context.Background()
	backend := disk.NewAdapterFs(afero.NewMemMapFs())

	// 写入自定义规则
	ignoreContent := `
# 这是注释
*.tmp
scratch
!keep.tmp
`
	require.NoError(t, backend.WriteFile(ctx, FileName, []byte(ignoreContent)))

	matcher, err := NewMatcher(ctx, backend)
	require.NoError(t, err)

	// 验证混合规则 (默认 + 用户)
	tests := []struct {
		path     string
		shouldIg bool
	}{
		// --- 默认规则依然要生效 ---
		{"/.git", true},

		// --- 用户规则生效 ---
		{"/run.tmp", true},
		{"/a/b/run.tmp", true},
		{"/scratch", true},
		{"/scratch/inner", true},

		// --- 正常节点 ---
		{"/results", false},

		// --- 负向规则 (Whitelisting) ---
		{"/keep.tmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.shouldIg, matcher.Matches(types.MustParsePath(tt.path)), "Path: %s", tt.path)
		})
	}
}

func TestMatcher_Nil(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Matches(types.MustParsePath("/anything")))

	m = NewFromLines("raw")
	assert.True(t, m.Matches(types.MustParsePath("/raw")))
	assert.False(t, m.Matches(types.MustParsePath("/cooked")))
}
