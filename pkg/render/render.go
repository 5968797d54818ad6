package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shouni/go-pma-exact/pkg/extract"
)

// 出力形式
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Renderer は抽出結果を出力先へ書き出します。
type Renderer interface {
	Render(w io.Writer, result *extract.Result) error
}

// New は形式名に対応する Renderer を返します。空文字列はコンソール表形式です。
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatTable:
		return &Console{Now: time.Now}, nil
	case FormatJSON:
		return JSON{}, nil
	case FormatCSV:
		return CSV{}, nil
	default:
		return nil, fmt.Errorf("未対応の出力形式です: %q (table, json, csv のいずれかを指定してください)", format)
	}
}

// JSON は結果をインデント付きJSONとして書き出します。
type JSON struct{}

func (JSON) Render(w io.Writer, result *extract.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("JSONの書き出しに失敗しました: %w", err)
	}
	return nil
}

// CSV はヘッダー行に続けてデータ行を書き出します。
type CSV struct{}

func (CSV) Render(w io.Writer, result *extract.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(result.Headers); err != nil {
		return fmt.Errorf("CSVの書き出しに失敗しました: %w", err)
	}
	if err := cw.WriteAll(result.Rows); err != nil {
		return fmt.Errorf("CSVの書き出しに失敗しました: %w", err)
	}
	return nil
}
