package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"

	"exdir/pkg/catalog"
	"exdir/pkg/exdir"
	"exdir/pkg/manifest"
	"exdir/pkg/service"
)

// printElements 按 rank 排版：标量一行，向量一行，矩阵按行，立方体按 slice 分块
func printElements(view service.ArrayView, w io.Writer, limit int) error {
	v := reflect.ValueOf(view.Elements)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("unexpected element container %T", view.Elements)
	}
	n := v.Len()
	cell := func(i int) string { return fmt.Sprint(v.Index(i).Interface()) }

	if limit > 0 && n > limit {
		parts := make([]string, limit)
		for i := range parts {
			parts[i] = cell(i)
		}
		fmt.Fprintf(w, "[%s ...]\n(%d more elements, use --all to show everything)\n", strings.Join(parts, " "), n-limit)
		return nil
	}

	shape := view.Shape
	switch len(shape) {
	case 0:
		fmt.Fprintln(w, cell(0))
	case 1:
		parts := make([]string, n)
		for i := range parts {
			parts[i] = cell(i)
		}
		fmt.Fprintf(w, "[%s]\n", strings.Join(parts, " "))
	default:
		// 最后两维是矩阵，其余维度展开成块
		rows, cols := shape[len(shape)-2], shape[len(shape)-1]
		block := rows * cols
		for start := 0; start < n; start += block {
			if len(shape) > 2 {
				fmt.Fprintf(w, "[%d]\n", start/block)
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					fmt.Fprintf(tw, "%s\t", cell(start+r*cols+c))
				}
				fmt.Fprintln(tw)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// PrintManifest 打印 manifest 树 (缩进表示层级)
func PrintManifest(t *manifest.Tree, w io.Writer) error {
	fmt.Fprintf(w, "Root: %s\n\n", t.Hash)
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "HASH\tKIND\tDTYPE\tSHAPE\tPATH\n")
	t.Walk(func(n *manifest.Tree) {
		dt, shape := "-", "-"
		if n.Entry.Kind == exdir.KindDataset.String() {
			dt = n.Entry.Dtype
			shape = exdir.FormatShape(n.Entry.Shape)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.Hash.Short(), n.Entry.Kind, dt, shape, n.Path)
	})
	return tw.Flush()
}

// PrintRecords 打印目录查询结果
func PrintRecords(recs []catalog.DatasetRecord, w io.Writer) error {
	if len(recs) == 0 {
		fmt.Fprintf(w, "(no matching datasets)\n")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "PATH\tDTYPE\tSHAPE\tDIGEST\tINDEXED\n")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Path, r.Dtype, fmtShapeJSON(r.Shape), shortDigest(r.Digest), r.IndexedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func fmtShapeJSON(raw []byte) string {
	var shape []int
	if err := json.Unmarshal(raw, &shape); err != nil {
		return "?"
	}
	return exdir.FormatShape(shape)
}

func shortDigest(d string) string {
	if len(d) < 8 {
		return d
	}
	return d[:8]
}
