package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	textUtils "github.com/shouni/go-utils/text"
)

// keyValuePattern は `key` = `value` 形式の行から値部分を取り出します。
var keyValuePattern = regexp.MustCompile(`=\s*(.+)`)

const controlSelectors = `input[type="checkbox"], button`

// ExtractRows はテーブルの行をヘッダー行とデータ行に分類します。
// tr が2行未満、またはデータ行が一つも残らない場合は ErrNotFound を返します。
func (e *Extractor) ExtractRows(table *goquery.Selection) (headers []string, rows [][]string, err error) {
	trs := table.Find("tr")
	if trs.Length() < 2 {
		return nil, nil, ErrNotFound
	}

	trs.Each(func(rowIndex int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		if cells.Length() == 0 {
			return
		}

		values := e.cleanRow(cells)
		if len(values) == 0 || e.isChromeRow(values) {
			return
		}

		if rowIndex == 0 || (len(headers) == 0 && len(values) <= MaxLateHeaderCells) {
			headers = values
			return
		}
		rows = append(rows, reconcile(values, len(headers))...)
	})

	if len(rows) == 0 {
		return nil, nil, ErrNotFound
	}
	return headers, rows, nil
}

// cleanRow は各セルをクリーニングし、残った値だけを返します。
func (e *Extractor) cleanRow(cells *goquery.Selection) []string {
	var values []string
	cells.Each(func(_ int, cell *goquery.Selection) {
		// チェックボックスやボタンは管理操作用
		if cell.Find(controlSelectors).Length() > 0 {
			return
		}
		if value, ok := e.cleanCell(cell.Text()); ok {
			values = append(values, value)
		}
	})
	return values
}

// cleanCell はセルのテキストを整形します。ok=false の場合、そのセルは行に含めません。
func (e *Extractor) cleanCell(raw string) (value string, ok bool) {
	if isKeyValueText(raw) {
		return parseKeyValueCell(raw)
	}

	text := strings.TrimSpace(textUtils.NormalizeText(raw))
	if text == "" || utf8.RuneCountInString(text) > MaxCellLength {
		return "", false
	}
	if _, isAction := e.actionLabels[text]; isAction {
		return "", false
	}
	if containsAny(lower(text), e.cellNoise) {
		return "", false
	}
	return text, true
}

// parseKeyValueCell は複数行の `key` = `value` 表記から重複しない値を出現順に取り出し、空白で連結します。
// パターンに一致しない行は無視されます。
func parseKeyValueCell(raw string) (string, bool) {
	var values []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !isKeyValueText(line) {
			continue
		}
		m := keyValuePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v := strings.Trim(strings.TrimSpace(m[1]), "`'\"")
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, " "), true
}

// isChromeRow は、行に長すぎるセルやナビゲーション語を含むセルがあるかを判定します。
func (e *Extractor) isChromeRow(values []string) bool {
	for _, v := range values {
		if utf8.RuneCountInString(v) > MaxCellLength || containsAny(lower(v), e.rowNoise) {
			return true
		}
	}
	return false
}

// reconcile はデータ行をヘッダーの列数 width に合わせます。1行から複数行が得られることがあります。
func reconcile(row []string, width int) [][]string {
	switch {
	case len(row) > width*2:
		return splitPackedRecords(row)
	case len(row) > width:
		// 先頭のチェックボックス列が残ったケース
		if width == 2 && len(row) == 3 {
			return [][]string{{row[1], row[2]}}
		}
		return [][]string{append([]string(nil), row[:width]...)}
	default:
		return [][]string{row}
	}
}

// splitPackedRecords は1行に詰め込まれた複数レコードを (ID, 名前) の組に分割します。
// 数字のみのセルと数字以外のセルが連続する箇所を左から貪欲に拾います。
func splitPackedRecords(row []string) [][]string {
	var records [][]string
	for i := 0; i < len(row); {
		if i+1 < len(row) && isDigits(row[i]) && !isDigits(row[i+1]) {
			records = append(records, []string{row[i], row[i+1]})
			i += 2
			continue
		}
		i++
	}
	return records
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
