package exporter

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"exdir/pkg/exdir"
	"exdir/pkg/service"
)

// Exporter 把 Browser 返回的结果格式化成终端输出
type Exporter struct {
	browser *service.Browser
}

func NewExporter(b *service.Browser) *Exporter {
	return &Exporter{browser: b}
}

// PrintInfo 打印单个节点的概要
func (e *Exporter) PrintInfo(ctx context.Context, path string, w io.Writer) error {
	info, err := e.browser.Resolve(ctx, path)
	if err != nil {
		return err
	}
	if info.Kind == exdir.KindInvalid {
		return fmt.Errorf("%s is not an exdir object", info.Path)
	}

	fmt.Fprintf(w, "Type:  %s\n", info.DisplayType)
	fmt.Fprintf(w, "Path:  %s\n", info.Path)
	fmt.Fprintf(w, "Info:  %s\n", info.Info)

	if info.Kind == exdir.KindDataset {
		// 只读文件头，不加载数据
		n, err := e.browser.File().ResolveString(ctx, path)
		if err != nil {
			return err
		}
		h, err := n.Header(ctx)
		if err != nil {
			return err
		}
		order := exdir.OrderC
		if h.Fortran {
			order = exdir.OrderFortran
		}
		fmt.Fprintf(w, "Dtype: %s (%s)\n", h.Dtype, h.Dtype.Descr())
		fmt.Fprintf(w, "Shape: %s\n", exdir.FormatShape(h.Shape))
		fmt.Fprintf(w, "Order: %s\n", order)
	}

	attrs, err := e.browser.ListAttributes(ctx, path)
	if err != nil {
		return err
	}
	if len(attrs) > 0 {
		fmt.Fprintf(w, "\nAttributes:\n")
		printAttributes(attrs, w)
	}
	return nil
}

// PrintListing 像 ls -l 一样打印 group 的子节点
func (e *Exporter) PrintListing(ctx context.Context, path string, w io.Writer) error {
	children, err := e.browser.ListChildren(ctx, path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "TYPE\tNAME\tINFO\n")
	for _, c := range children {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.DisplayType, c.Name, fmtInfo(c.Info))
	}
	return tw.Flush()
}

// PrintArray 打印 dataset 的内容
// limit > 0 时，元素个数超过 limit 只打印开头部分
func (e *Exporter) PrintArray(ctx context.Context, path string, w io.Writer, limit int) error {
	view, err := e.browser.ReadArray(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n\n", exdir.ShapeInfo(view.Shape), view.Dtype)
	return printElements(view, w, limit)
}

// PrintAttributes 打印节点的属性表
func (e *Exporter) PrintAttributes(ctx context.Context, path string, w io.Writer) error {
	attrs, err := e.browser.ListAttributes(ctx, path)
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		fmt.Fprintf(w, "(no attributes)\n")
		return nil
	}
	printAttributes(attrs, w)
	return nil
}

func printAttributes(attrs []service.AttributeInfo, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for _, a := range attrs {
		fmt.Fprintf(tw, "  %s\t%s\n", a.Name, a.Display)
	}
	tw.Flush()
}

func fmtInfo(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
