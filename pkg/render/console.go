package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/shouni/go-pma-exact/pkg/extract"
)

const (
	MinColumnWidth = 8
	MaxColumnWidth = 40

	bannerWidth     = 80
	timestampLayout = "15:04:05 02.01.2006"
	columnSeparator = " | "
)

// Console は結果を列幅を揃えた表としてコンソールに書き出します。
type Console struct {
	// Now はバナーに表示する時刻の取得元です。nil の場合は time.Now を使います。
	Now func() time.Time
}

func (c *Console) Render(w io.Writer, result *extract.Result) error {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	bw := bufio.NewWriter(w)
	banner := strings.Repeat("=", bannerWidth)
	widths := ColumnWidths(result)

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, banner)
	fmt.Fprintf(bw, "TABLE: %s\n", result.Table)
	fmt.Fprintf(bw, "Records: %d\n", len(result.Rows))
	fmt.Fprintf(bw, "Time: %s\n", now().Format(timestampLayout))
	fmt.Fprintln(bw, banner)

	header := formatLine(result.Headers, widths)
	fmt.Fprintln(bw, header)
	fmt.Fprintln(bw, strings.Repeat("-", uniseg.StringWidth(header)))
	for _, row := range result.Rows {
		fmt.Fprintln(bw, formatLine(row, widths))
	}

	fmt.Fprintln(bw, banner)
	fmt.Fprintf(bw, "Columns: %d | Rows: %d\n", len(result.Headers), len(result.Rows))

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("コンソールへの書き出しに失敗しました: %w", err)
	}
	return nil
}

// ColumnWidths は各列の表示幅を返します。
// 見出しとセルの最大表示幅を [MinColumnWidth, MaxColumnWidth] に収めた値です。
func ColumnWidths(result *extract.Result) []int {
	widths := make([]int, len(result.Headers))
	for i, h := range result.Headers {
		width := uniseg.StringWidth(h)
		for _, row := range result.Rows {
			if i < len(row) {
				width = max(width, uniseg.StringWidth(row[i]))
			}
		}
		widths[i] = min(max(width, MinColumnWidth), MaxColumnWidth)
	}
	return widths
}

// formatLine はセルを左寄せで列幅まで埋めます。列幅より長いセルは切り詰めません。
func formatLine(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = padRight(cell, width)
	}
	return strings.Join(parts, columnSeparator)
}

func padRight(s string, width int) string {
	if pad := width - uniseg.StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
