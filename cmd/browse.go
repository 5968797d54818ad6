package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shouni/go-pma-exact/internal/pipeline"
	"github.com/shouni/go-pma-exact/pkg/config"
	"github.com/shouni/go-pma-exact/pkg/extract"
	"github.com/shouni/go-pma-exact/pkg/render"
)

var browseOverride config.Config

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "phpMyAdminにログインし、テーブルの内容を表示します",
	Long: `環境変数 (または .env / YAML 設定ファイル) の接続設定で phpMyAdmin にログインし、
テーブルの閲覧ページから表データを推定抽出して表示します。
閲覧ページから抽出できない場合は SELECT クエリの結果ページを利用します。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 設定の読み込みと検証
		cfg, err := loadConfig(browseOverride)
		if err != nil {
			return err
		}
		renderer, err := render.New(Flags.Format)
		if err != nil {
			return err
		}

		log.Info().Str("server", cfg.URL).Str("database", cfg.Database).Str("table", cfg.Table).Msg("データ抽出を開始します")

		// 2. メインロジックの実行
		ctx, cancel := newRunContext()
		defer cancel()

		result, err := pipeline.FetchTable(ctx, cfg, pipelineOptions(1))
		if err != nil {
			if errors.Is(err, extract.ErrNotFound) {
				return fmt.Errorf("データが見つかりませんでした: %w", err)
			}
			return err
		}

		// 3. 結果の出力
		if err := renderer.Render(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		log.Info().Int("rows", len(result.Rows)).Msg("完了しました")
		return nil
	},
}

func init() {
	browseCmd.Flags().StringVarP(&browseOverride.Database, "database", "d", "", "対象データベース名 (DATABASE_NAME を上書き)")
	browseCmd.Flags().StringVarP(&browseOverride.Table, "table", "t", "", "対象テーブル名 (TABLE_NAME を上書き)")
}
