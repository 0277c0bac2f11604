package exporter

import (
	"bytes"
	"context"
	"testing"
	"time"

	"exdir/pkg/catalog"
	"exdir/pkg/dtype"
	"exdir/pkg/exdir"
	"exdir/pkg/manifest"
	"exdir/pkg/service"
	"exdir/pkg/storage/disk"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// setupExporter 构造一个小仓库:
//
//	/ ── run (group, attrs) ── cube (2x2x3 int16)
//	   └─ vec ([3] float64)
func setupExporter(t *testing.T) (*Exporter, *service.Browser) {
	t.Helper()
	ctx := context.Background()
	backend := disk.NewAdapterFs(afero.NewMemMapFs())
	f, err := exdir.Create(ctx, backend)
	require.NoError(t, err)
	b := service.NewBrowser(f)

	_, err = b.CreateGroup(ctx, "/run")
	require.NoError(t, err)
	require.NoError(t, backend.WriteFile(ctx, "run/attributes.yml", []byte("rate: {value: 10, unit: Hz}\n")))

	cube := make([]int16, 12)
	for i := range cube {
		cube[i] = int16(i)
	}
	require.NoError(t, b.WriteArray(ctx, "/run/cube", []int{2, 2, 3}, dtype.Int16, cube, exdir.OrderFortran))
	require.NoError(t, b.WriteArray(ctx, "/vec", []int{3}, dtype.Float64, []float64{0.5, 1, 1.5}, exdir.OrderC))

	return NewExporter(b), b
}

func TestPrintListing(t *testing.T) {
	exp, _ := setupExporter(t)
	var buf bytes.Buffer

	require.NoError(t, exp.PrintListing(context.Background(), "/", &buf))
	out := buf.String()
	assert.Contains(t, out, "TYPE")
	assert.Regexp(t, `Group\s+run\s+1 objects`, out)
	assert.Regexp(t, `Dataset\s+vec\s+vector of size 3`, out)
}

func TestPrintInfo(t *testing.T) {
	exp, _ := setupExporter(t)
	ctx := context.Background()
	var buf bytes.Buffer

	// Case 1: group with attributes
	require.NoError(t, exp.PrintInfo(ctx, "/run", &buf))
	assert.Contains(t, buf.String(), "Type:  Group")
	assert.Contains(t, buf.String(), "Attributes:")
	assert.Regexp(t, `rate\s+10 Hz`, buf.String())

	// Case 2: dataset
	buf.Reset()
	require.NoError(t, exp.PrintInfo(ctx, "/run/cube", &buf))
	assert.Contains(t, buf.String(), "Info:  2x2x3 cube")
	assert.Contains(t, buf.String(), "Dtype: int16 (<i2)")
	assert.Contains(t, buf.String(), "Order: Fortran")

	// Case 3: nothing there
	buf.Reset()
	assert.Error(t, exp.PrintInfo(ctx, "/nope", &buf))
}

func TestPrintArray(t *testing.T) {
	exp, _ := setupExporter(t)
	ctx := context.Background()
	var buf bytes.Buffer

	require.NoError(t, exp.PrintArray(ctx, "/vec", &buf, 0))
	assert.Contains(t, buf.String(), "vector of size 3 float64")
	assert.Contains(t, buf.String(), "[0.5 1 1.5]")

	buf.Reset()
	require.NoError(t, exp.PrintArray(ctx, "/run/cube", &buf, 0))
	out := buf.String()
	assert.Contains(t, out, "[0]")
	assert.Contains(t, out, "[1]")
	// 第二个 slice 的最后一行是 9 10 11
	assert.Regexp(t, `9\s+10\s+11`, out)

	buf.Reset()
	require.NoError(t, exp.PrintArray(ctx, "/run/cube", &buf, 4))
	assert.Contains(t, buf.String(), "[0 1 2 3 ...]")
	assert.Contains(t, buf.String(), "8 more elements")
}

func TestPrintAttributes_Empty(t *testing.T) {
	exp, _ := setupExporter(t)
	var buf bytes.Buffer
	require.NoError(t, exp.PrintAttributes(context.Background(), "/vec", &buf))
	assert.Equal(t, "(no attributes)\n", buf.String())
}

func TestPrintManifest(t *testing.T) {
	_, b := setupExporter(t)
	tree, err := manifest.NewBuilder().Build(context.Background(), b.File().Root())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintManifest(tree, &buf))
	out := buf.String()
	assert.Contains(t, out, "Root: "+tree.Hash.String())
	assert.Regexp(t, `dataset\s+<i2\s+2x2x3\s+/run/cube`, out)
	assert.Regexp(t, `group\s+-\s+-\s+/run`, out)
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintRecords(nil, &buf))
	assert.Contains(t, buf.String(), "no matching datasets")

	buf.Reset()
	recs := []catalog.DatasetRecord{{
		Path:      "/a",
		Dtype:     "<f4",
		Shape:     datatypes.JSON(`[4,5]`),
		Digest:    "0123456789abcdef",
		IndexedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	require.NoError(t, PrintRecords(recs, &buf))
	assert.Regexp(t, `/a\s+<f4\s+4x5\s+01234567\s+2026-01-02T03:04:05Z`, buf.String())
}
