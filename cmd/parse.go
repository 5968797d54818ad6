package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shouni/go-pma-exact/pkg/extract"
	"github.com/shouni/go-pma-exact/pkg/render"
)

// 保存済みHTMLのパスとテーブル名を保持するフラグ変数
var (
	htmlFile  string
	parseName string
)

// runParsePipeline は、読み込んだHTMLからテーブルを抽出するメインロジックです。
func runParsePipeline(r io.Reader, table string) (*extract.Result, error) {
	document, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("HTMLの読み込みエラー: %w", err)
	}
	return extract.Extract(string(document), table)
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "保存済みのHTMLページからテーブルを抽出して表示します",
	Long:  `ログインを行わず、ファイルまたは標準入力から読み込んだ管理画面のHTMLに対してテーブル抽出だけを実行します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := render.New(Flags.Format)
		if err != nil {
			return err
		}

		// 1. 入力元の決定 (フラグ優先)
		var input io.Reader = cmd.InOrStdin()
		if htmlFile != "" {
			f, err := os.Open(htmlFile)
			if err != nil {
				return fmt.Errorf("HTMLファイルを開けません: %w", err)
			}
			defer f.Close()
			input = f
		} else {
			log.Info().Msg("ファイルが指定されていないため、標準入力からHTMLを読み込みます...")
		}

		// 2. 抽出の実行
		result, err := runParsePipeline(input, parseName)
		if err != nil {
			if errors.Is(err, extract.ErrNotFound) {
				return fmt.Errorf("データが見つかりませんでした: %w", err)
			}
			return err
		}

		// 3. 結果の出力
		return renderer.Render(cmd.OutOrStdout(), result)
	},
}

func init() {
	parseCmd.Flags().StringVarP(&htmlFile, "file", "f", "", "抽出対象のHTMLファイル (省略時は標準入力)")
	parseCmd.Flags().StringVarP(&parseName, "table", "t", "table", "出力に表示するテーブル名")
}
