package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shouni/go-pma-exact/internal/pipeline"
	"github.com/shouni/go-pma-exact/pkg/config"
	"github.com/shouni/go-pma-exact/pkg/render"
	"github.com/shouni/go-pma-exact/pkg/scraper"
)

// コマンドラインフラグ変数を定義
var (
	inputTables     string // --tables フラグで受け取るカンマ区切りのテーブル名リスト
	scraperDatabase string // --database フラグ
	concurrency     int    // --concurrency フラグで受け取る並列実行数
)

var scraperCmd = &cobra.Command{
	Use:   "scraper",
	Short: "複数のテーブルを1つのセッションで並列に取得します",
	Long:  `--tables フラグでカンマ区切りのテーブル名を受け取るか、標準入力からテーブル名を一行ずつ読み込み、指定された最大同時実行数で並列に取得します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 処理対象テーブルのリストを決定
		var tables []string
		if inputTables != "" {
			tables = splitList(inputTables)
		} else {
			log.Info().Msg("テーブルが指定されていないため、標準入力から読み込みます (Ctrl+DまたはEOFで終了)...")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				if name := strings.TrimSpace(scanner.Text()); name != "" {
					tables = append(tables, name)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("標準入力の読み取りエラー: %w", err)
			}
		}
		if len(tables) == 0 {
			return fmt.Errorf("処理対象のテーブルが一つも指定されていません")
		}

		// 2. 設定の読み込み (TABLE_NAME は先頭のテーブルで補う)
		cfg, err := loadConfig(config.Config{Database: scraperDatabase, Table: tables[0]})
		if err != nil {
			return err
		}
		renderer, err := render.New(Flags.Format)
		if err != nil {
			return err
		}

		ctx, cancel := newRunContext()
		defer cancel()

		log.Info().Int("tables", len(tables)).Int("concurrency", concurrency).Msg("並列取得を開始します")

		// 3. メインロジックの実行
		results, err := pipeline.FetchTables(ctx, cfg, tables, pipelineOptions(concurrency))
		if err != nil {
			return err
		}

		// 4. 結果の出力
		successCount := 0
		for _, res := range results {
			if res.Error != nil {
				log.Error().Err(res.Error).Str("table", res.Table).Msg("取得失敗")
				continue
			}
			successCount++
			if err := renderer.Render(cmd.OutOrStdout(), res.Result); err != nil {
				return err
			}
		}

		log.Info().Int("success", successCount).Int("failure", len(results)-successCount).Msg("完了しました")
		if successCount == 0 {
			return fmt.Errorf("いずれのテーブルからもデータを取得できませんでした")
		}
		return nil
	},
}

// splitList はカンマ区切りの文字列を空要素を除いて分割します。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	scraperCmd.Flags().StringVarP(&inputTables, "tables", "t", "",
		"取得対象のカンマ区切りテーブル名リスト (例: users,orders)")
	scraperCmd.Flags().StringVarP(&scraperDatabase, "database", "d", "", "対象データベース名 (DATABASE_NAME を上書き)")
	scraperCmd.Flags().IntVarP(&concurrency, "concurrency", "c",
		scraper.DefaultMaxConcurrency,
		fmt.Sprintf("最大並列実行数 (デフォルト: %d)", scraper.DefaultMaxConcurrency))
}
