package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shouni/go-pma-exact/pkg/parser"
)

// ----------------------------------------------------------------------
// 定数定義 (解析関連のみ)
// ----------------------------------------------------------------------
const (
	// MaxCellLength を超えるセルはUI部品とみなします。
	MaxCellLength = 100
	// MaxFirstRowLength を超える先頭データ行はレイアウト用テーブルとみなします。
	MaxFirstRowLength = 200
	// MaxLateHeaderCells は、先頭以外の行をヘッダーとして採用できる最大セル数です。
	MaxLateHeaderCells = 5

	DefaultHeaderPrefix = "Column_"
)

// 既定のノイズ語。管理画面は ru/en で表示される想定です。
var (
	DefaultActionLabels    = []string{"Изменить", "Копировать", "Удалить", "Edit", "Copy", "Delete", "✓", "×"}
	DefaultCellNoiseWords  = []string{"панель", "навигация", "настройки"}
	DefaultRowNoiseWords   = []string{"панель", "навигация"}
	DefaultGuardNoiseWords = []string{"панель", "навигация", "логотип", "настройки"}
)

// Extractor は、HTMLドキュメントからデータテーブルを推定して抽出します。
// 状態を持たないため、複数のゴルーチンから同時に利用できます。
type Extractor struct {
	actionLabels map[string]struct{}
	cellNoise    []string
	rowNoise     []string
	guardNoise   []string
	headerPrefix string
}

// New は、既定のノイズ語で初期化された Extractor を生成します。
func New(opts ...Option) *Extractor {
	e := &Extractor{headerPrefix: DefaultHeaderPrefix}
	WithActionLabels(DefaultActionLabels...)(e)
	WithCellNoiseWords(DefaultCellNoiseWords...)(e)
	WithRowNoiseWords(DefaultRowNoiseWords...)(e)
	WithGuardNoiseWords(DefaultGuardNoiseWords...)(e)

	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = New()

// Extract は既定の Extractor で HTML 文字列からテーブルを抽出します。
func Extract(document, table string) (*Result, error) {
	return defaultExtractor.Extract(document, table)
}

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// Extract は HTML 文字列をパースし、最も妥当なデータテーブルを抽出します。
// 失敗はすべて ErrNotFound として返されます。
func (e *Extractor) Extract(document, table string) (*Result, error) {
	doc, err := parser.ParseString(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return e.ExtractDocument(doc, table)
}

// ExtractDocument はパース済みのドキュメントからテーブルを抽出します。
func (e *Extractor) ExtractDocument(doc *goquery.Document, table string) (*Result, error) {
	// 1. 候補テーブルの選択
	candidate, ok := SelectCandidate(doc)
	if !ok {
		return nil, ErrNotFound
	}

	// 2. 行の分類とセルのクリーニング
	headers, rows, err := e.ExtractRows(candidate)
	if err != nil {
		return nil, err
	}

	// 3. ナビゲーション用テーブルを誤って選んでいないかの確認
	if e.isImplausible(rows[0]) {
		return nil, ErrNotFound
	}

	return e.assemble(headers, rows, table), nil
}

// isImplausible は先頭データ行がレイアウト要素らしい場合に true を返します。
func (e *Extractor) isImplausible(first []string) bool {
	joined := strings.Join(first, " ")
	return utf8.RuneCountInString(joined) > MaxFirstRowLength || containsAny(lower(joined), e.guardNoise)
}

// assemble はヘッダーを確定し、全行をヘッダーの列数に揃えます。
func (e *Extractor) assemble(headers []string, rows [][]string, table string) *Result {
	if len(headers) == 0 {
		headers = make([]string, len(rows[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("%s%d", e.headerPrefix, i+1)
		}
	}

	width := len(headers)
	normalized := make([][]string, len(rows))
	for i, row := range rows {
		out := make([]string, width)
		copy(out, row)
		normalized[i] = out
	}

	return &Result{
		Headers: headers,
		Rows:    normalized,
		Table:   table,
	}
}

// ----------------------------------------------------------------------
// ヘルパー関数
// ----------------------------------------------------------------------

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, lower(w))
	}
	return out
}

// containsAny は、小文字化済みの text がいずれかの単語を含むかを判定します。
func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
