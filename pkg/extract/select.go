package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// prioritySelectors は結果テーブルによく使われるマークアップです。先頭ほど優先されます。
var prioritySelectors = []string{
	"table.table_results",
	`table[class*="data"]`,
	`table[id*="table"]`,
	`table[class*="result"]`,
}

// tableHintWords はデータテーブルの列名によく現れる単語です。
var tableHintWords = []string{"id", "name", "user", "email"}

// SelectCandidate はドキュメント内で最もデータテーブルらしい table 要素を返します。
// 判定は次の順で行い、最初に見つかったものを採用します。
//  1. 既知のセレクター
//  2. key=value 形式のセル、または典型的な列名を含むテーブル
//  3. tr を最も多く含むテーブル
func SelectCandidate(doc *goquery.Document) (*goquery.Selection, bool) {
	for _, selector := range prioritySelectors {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			return found, true
		}
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, false
	}

	var hinted *goquery.Selection
	tables.EachWithBreak(func(_ int, t *goquery.Selection) bool {
		text := t.Text()
		if isKeyValueText(text) || containsAny(lower(text), tableHintWords) {
			hinted = t
			return false
		}
		return true
	})
	if hinted != nil {
		return hinted, true
	}

	var largest *goquery.Selection
	maxRows := -1
	tables.Each(func(_ int, t *goquery.Selection) {
		if n := t.Find("tr").Length(); n > maxRows {
			maxRows = n
			largest = t
		}
	})
	return largest, true
}

// isKeyValueText は管理画面が `col` = `value` 形式で描画したテキストかを判定します。
func isKeyValueText(text string) bool {
	return strings.Contains(text, "`") && strings.Contains(text, "=")
}
