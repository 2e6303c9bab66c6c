// Package domain は全パイプラインで共有するエラー分類を定義します。
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// 分類用のセンチネルエラーです。下の各エラー型は errors.Is でいずれか1つに一致します。
var (
	// ErrSourceUnavailable indicates that an upstream provider could not be reached,
	// or answered with a non-2xx status, after the retry budget was spent.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrFormat indicates that a timestamp matched none of the known layouts.
	ErrFormat = errors.New("unrecognized time format")

	// ErrSchema indicates that table or index creation failed.
	ErrSchema = errors.New("schema setup failed")

	// ErrValidation indicates that pipeline arguments were rejected before any I/O.
	ErrValidation = errors.New("invalid pipeline arguments")
)

// SourceUnavailableError は抽出を中断させた外部APIの失敗をラップします。
type SourceUnavailableError struct {
	Source string // provider or pipeline name
	Key    string // symbol, month or date being fetched
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s unavailable (%s): %v", e.Source, e.Key, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

func (e *SourceUnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }

// FormatError はどのレイアウトでも解析できなかった入力を示します。
type FormatError struct {
	Input string
	Index int // position of Input in the normalized sequence, -1 when parsed alone
}

func (e *FormatError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("unrecognized time format %q at row %d", e.Input, e.Index)
	}
	return fmt.Sprintf("unrecognized time format %q", e.Input)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// SchemaError はテーブルのDDLが失敗したことを表します。
type SchemaError struct {
	Table string
	Code  string // SQLSTATE or driver error number, empty when unknown
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("setup table %s [%s]: %v", e.Table, e.Code, e.Err)
	}
	return fmt.Sprintf("setup table %s: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// ValidationError はパイプライン生成時に見つかった引数の問題をすべて保持します。
type ValidationError struct {
	Pipeline string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid arguments: %s", e.Pipeline, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
