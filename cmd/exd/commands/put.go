package commands

import (
	"fmt"
	"strconv"
	"strings"

	"exdir/pkg/dtype"
	"exdir/pkg/exdir"

	"github.com/spf13/cobra"
	"github.com/x448/float16"
)

var (
	putDtype string
	putShape string
	putOrder string
)

var putCmd = &cobra.Command{
	Use:   "put <path> <values...>",
	Short: "Write a dataset from literal values",
	Long: `Write a dataset from values given in logical row-major order.
An existing dataset is replaced; otherwise a new one is created in the parent group.

Example:
  exd put /session/gain --dtype float32 --shape 2,2 1 0 0 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireApp(); err != nil {
			return err
		}

		dt, err := dtype.Parse(putDtype)
		if err != nil {
			return err
		}
		order, err := exdir.ParseOrder(putOrder)
		if err != nil {
			return err
		}
		values := args[1:]
		shape, err := parseShape(putShape, len(values))
		if err != nil {
			return err
		}
		elems, err := parseElements(dt, values)
		if err != nil {
			return err
		}

		if err := EXD.Browser.WriteArray(contextOf(cmd), args[0], shape, dt, elems, order); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s %s)\n", args[0], exdir.FormatShape(shape), dt)
		return nil
	},
}

// parseShape 解析 "2,3"；为空时按值的个数当作向量
func parseShape(s string, count int) ([]int, error) {
	if s == "" {
		return []int{count}, nil
	}
	if s == "()" || s == "scalar" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid shape %q", s)
		}
		shape[i] = d
	}
	return shape, nil
}

// parseElements 把字符串直接解析成目标 dtype 的 Go 类型，写入时不需要转换
func parseElements(dt dtype.Dtype, values []string) (any, error) {
	switch dt {
	case dtype.Bool:
		return parseAll(values, strconv.ParseBool)
	case dtype.Int8:
		return parseAll(values, parseInt[int8](8))
	case dtype.Int16:
		return parseAll(values, parseInt[int16](16))
	case dtype.Int32:
		return parseAll(values, parseInt[int32](32))
	case dtype.Int64:
		return parseAll(values, parseInt[int64](64))
	case dtype.Uint8:
		return parseAll(values, parseUint[uint8](8))
	case dtype.Uint16:
		return parseAll(values, parseUint[uint16](16))
	case dtype.Uint32:
		return parseAll(values, parseUint[uint32](32))
	case dtype.Uint64:
		return parseAll(values, parseUint[uint64](64))
	case dtype.Float16:
		return parseAll(values, func(s string) (float16.Float16, error) {
			f, err := strconv.ParseFloat(s, 32)
			return float16.Fromfloat32(float32(f)), err
		})
	case dtype.Float32:
		return parseAll(values, func(s string) (float32, error) {
			f, err := strconv.ParseFloat(s, 32)
			return float32(f), err
		})
	case dtype.Float64:
		return parseAll(values, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	}
	return nil, fmt.Errorf("unsupported dtype %s", dt)
}

func parseAll[T any](values []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, len(values))
	for i, s := range values {
		v, err := parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseInt[T int8 | int16 | int32 | int64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 10, bits)
		return T(v), err
	}
}

func parseUint[T uint8 | uint16 | uint32 | uint64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 10, bits)
		return T(v), err
	}
}

func init() {
	putCmd.Flags().StringVar(&putDtype, "dtype", "float64", "element type (name like float32 or descr like <f4)")
	putCmd.Flags().StringVar(&putShape, "shape", "", "comma separated shape, e.g. 2,3 (default: a vector)")
	putCmd.Flags().StringVar(&putOrder, "order", "C", "storage order: C or F")
	rootCmd.AddCommand(putCmd)
}
