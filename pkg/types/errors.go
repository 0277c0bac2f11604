package types

import "errors"

// 全局错误分类，调用方用 errors.Is 判断
// 格式错误的子类在 npy 包中定义，并包装 ErrFormat
var (
	ErrInvalidNode           = errors.New("operation on invalid node")
	ErrWrongKind             = errors.New("wrong node kind")
	ErrNotFound              = errors.New("not found")
	ErrInvalidPath           = errors.New("invalid path")
	ErrFormat                = errors.New("format error")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	ErrUnsupportedRank       = errors.New("unsupported rank")
	ErrIO                    = errors.New("i/o failure")
)
