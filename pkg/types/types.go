package types

import "github.com/shouni/go-pma-exact/pkg/extract"

// TableResult は、特定のテーブルから抽出された結果、またはその処理中に発生したエラーを保持します。
// これは、Scraperの出力として利用されます。
type TableResult struct {
	Table  string          // 処理対象のテーブル名
	Result *extract.Result // 抽出されたデータ (エラー時は nil)
	Error  error           // 処理中に発生したエラー
}
