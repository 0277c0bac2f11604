// pkg/npy/header.go
package npy

import (
	"fmt"
	"strconv"
	"strings"

	"exdir/pkg/dtype"
)

// Header 是 .npy 文件头里的三项信息
type Header struct {
	Dtype   dtype.Dtype
	Fortran bool  // fortran_order: True 表示列优先存储
	Shape   []int // 空切片表示标量
}

// Rank 就是 len(Shape)
func (h Header) Rank() int { return len(h.Shape) }

// ElementCount = product(Shape)，标量为 1
func (h Header) ElementCount() int { return ElementCount(h.Shape) }

// DataSize 是数据区应有的字节数
func (h Header) DataSize() int { return h.ElementCount() * h.Dtype.Width }

func ElementCount(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// -----------------------------------------------------------------------------
// 头部文本的 tokenizer
// 语法是固定的：{'descr': <str>, 'fortran_order': <bool>, 'shape': <tuple>}
// 只实现这三个键需要的 token，不支持任意 Python 字面量
// -----------------------------------------------------------------------------

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokColon
	tokComma
	tokString
	tokInt
	tokIdent
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of header"
	}
	return strconv.Quote(t.text)
}

type lexer struct {
	src string
	pos int
}

func isSpace(c byte) bool { return c == ' ' || c == '\n' || c == '\t' || c == '\r' }

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]
	single := map[byte]tokenKind{
		'{': tokLBrace, '}': tokRBrace,
		'(': tokLParen, ')': tokRParen,
		':': tokColon, ',': tokComma,
	}
	if k, ok := single[c]; ok {
		l.pos++
		return token{kind: k, text: string(c), pos: start}, nil
	}

	switch {
	case c == '\'' || c == '"':
		end := strings.IndexByte(l.src[l.pos+1:], c)
		if end < 0 {
			return token{}, fmt.Errorf("%w: unterminated string at %d", ErrHeaderParse, start)
		}
		l.pos += end + 2
		return token{kind: tokString, text: l.src[start+1 : l.pos-1], pos: start}, nil

	case c >= '0' && c <= '9':
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}
		// Python 2 时代的文件可能带 "3L" 这种后缀
		if l.pos < len(l.src) && l.src[l.pos] == 'L' {
			l.pos++
			return token{kind: tokInt, text: l.src[start : l.pos-1], pos: start}, nil
		}
		return token{kind: tokInt, text: l.src[start:l.pos], pos: start}, nil

	case c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z':
		for l.pos < len(l.src) {
			ch := l.src[l.pos]
			if !(ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch == '_') {
				break
			}
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], pos: start}, nil
	}

	return token{}, fmt.Errorf("%w: unexpected character %q at %d", ErrHeaderParse, c, start)
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.tok.kind != k {
		return token{}, fmt.Errorf("%w: expected %s, got %s", ErrHeaderParse, what, p.tok)
	}
	t := p.tok
	return t, p.advance()
}

// parseHeaderText 解析头部字典
// 三个键必须各出现一次；允许结尾逗号和空格/换行填充
func parseHeaderText(text string) (Header, error) {
	p := &parser{lex: &lexer{src: text}}
	if err := p.advance(); err != nil {
		return Header{}, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return Header{}, err
	}

	var (
		h     Header
		descr string
		seen  = map[string]bool{}
	)

	for p.tok.kind != tokRBrace {
		key, err := p.expect(tokString, "key")
		if err != nil {
			return Header{}, err
		}
		if seen[key.text] {
			return Header{}, fmt.Errorf("%w: duplicate key %q", ErrHeaderParse, key.text)
		}
		seen[key.text] = true

		if _, err := p.expect(tokColon, "':'"); err != nil {
			return Header{}, err
		}

		switch key.text {
		case "descr":
			v, err := p.expect(tokString, "descr string")
			if err != nil {
				return Header{}, err
			}
			descr = v.text
		case "fortran_order":
			v, err := p.expect(tokIdent, "True or False")
			if err != nil {
				return Header{}, err
			}
			switch v.text {
			case "True":
				h.Fortran = true
			case "False":
				h.Fortran = false
			default:
				return Header{}, fmt.Errorf("%w: fortran_order must be True or False, got %q", ErrHeaderParse, v.text)
			}
		case "shape":
			shape, err := p.parseShape()
			if err != nil {
				return Header{}, err
			}
			h.Shape = shape
		default:
			return Header{}, fmt.Errorf("%w: unknown key %q", ErrHeaderParse, key.text)
		}

		// 逗号可选 (最后一项后面也可以有)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return Header{}, err
			}
		} else if p.tok.kind != tokRBrace {
			return Header{}, fmt.Errorf("%w: expected ',' or '}', got %s", ErrHeaderParse, p.tok)
		}
	}
	if err := p.advance(); err != nil {
		return Header{}, err
	}
	if p.tok.kind != tokEOF {
		return Header{}, fmt.Errorf("%w: trailing data after header dict", ErrHeaderParse)
	}

	for _, k := range []string{"descr", "fortran_order", "shape"} {
		if !seen[k] {
			return Header{}, fmt.Errorf("%w: missing key %q", ErrHeaderParse, k)
		}
	}

	d, err := parseDescr(descr)
	if err != nil {
		return Header{}, err
	}
	h.Dtype = d
	return h, nil
}

func (p *parser) parseShape() ([]int, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	shape := []int{}
	for p.tok.kind != tokRParen {
		v, err := p.expect(tokInt, "dimension")
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(v.text)
		if err != nil {
			return nil, fmt.Errorf("%w: bad dimension %q", ErrHeaderParse, v.text)
		}
		shape = append(shape, n)

		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ',' or ')' in shape, got %s", ErrHeaderParse, p.tok)
		}
	}
	return shape, p.advance()
}

func parseDescr(descr string) (dtype.Dtype, error) {
	if strings.HasPrefix(descr, ">") {
		return dtype.Dtype{}, fmt.Errorf("%w: %q", ErrBigEndianUnsupported, descr)
	}
	d, _, err := dtype.ParseDescr(descr)
	if err != nil {
		return dtype.Dtype{}, fmt.Errorf("%w: %v", ErrUnsupportedDtype, err)
	}
	return d, nil
}

// formatShape: () / (N,) / (A, B, C)
func formatShape(shape []int) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatHeaderText(h Header) string {
	order := "False"
	if h.Fortran {
		order = "True"
	}
	return fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }",
		h.Dtype.Descr(), order, formatShape(h.Shape))
}
