package extract

import (
	"errors"
)

// ----------------------------------------------------------------------
// 結果とエラーの定義
// ----------------------------------------------------------------------

// ErrNotFound は、データテーブルを特定できなかったことを示します。
// テーブル要素が無い、行が2行未満、有効なデータ行が無い、妥当性チェックで除外された、のいずれかです。
var ErrNotFound = errors.New("データテーブルが見つかりませんでした")

// Result は、HTMLから抽出された矩形の表データです。
// Rows の各行は常に len(Headers) 列に揃えられています。
type Result struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Table   string     `json:"table"`
}

// Option は Extractor の設定を行うための関数型です。
type Option func(*Extractor)

// WithActionLabels は、セルごと除外する管理操作ラベル（「編集」「削除」など）を置き換えます。
func WithActionLabels(labels ...string) Option {
	return func(e *Extractor) {
		e.actionLabels = make(map[string]struct{}, len(labels))
		for _, l := range labels {
			e.actionLabels[l] = struct{}{}
		}
	}
}

// WithCellNoiseWords は、セル単位で除外するUI部品の単語を置き換えます。
func WithCellNoiseWords(words ...string) Option {
	return func(e *Extractor) { e.cellNoise = lowerAll(words) }
}

// WithRowNoiseWords は、行全体を除外するUI部品の単語を置き換えます。
func WithRowNoiseWords(words ...string) Option {
	return func(e *Extractor) { e.rowNoise = lowerAll(words) }
}

// WithGuardNoiseWords は、最終的な妥当性チェックで使う単語を置き換えます。
func WithGuardNoiseWords(words ...string) Option {
	return func(e *Extractor) { e.guardNoise = lowerAll(words) }
}

// WithHeaderPrefix は、ヘッダーが検出できなかった場合に生成する列名の接頭辞を設定します。
func WithHeaderPrefix(prefix string) Option {
	return func(e *Extractor) { e.headerPrefix = prefix }
}
