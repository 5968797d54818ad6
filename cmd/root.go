package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-pma-exact/internal/pipeline"
	"github.com/shouni/go-pma-exact/pkg/client"
	"github.com/shouni/go-pma-exact/pkg/config"
	"github.com/shouni/go-pma-exact/pkg/render"
	"github.com/shouni/go-pma-exact/pkg/retry"
)

// --- グローバル定数 ---

const (
	appName           = "pma-exact"
	defaultTimeoutSec = 30
	defaultMaxRetries = retry.DefaultMaxRetries

	// 全体処理のタイムアウトはクライアントタイムアウトの何倍か
	// (ログイン2回 + 閲覧URL4件 + SQL1件に余裕を持たせる)
	overallTimeoutFactor = 8

	// DefaultOverallTimeout は --timeout 0 が指定された場合の全体タイムアウトです。
	DefaultOverallTimeout = 2 * time.Minute
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec int    // --timeout タイムアウト
	MaxRetries int    // --max-retries リトライ回数
	EnvFile    string // --env-file dotenv ファイル
	ConfigFile string // --config YAML 設定ファイル
	Format     string // --format 出力形式
	Language   string // --lang 管理画面の表示言語
	QueryLimit int    // --limit SQL代替取得時の行数
}

var Flags AppFlags // アプリケーション固有フラグにアクセスするためのグローバル変数

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&Flags.TimeoutSec, "timeout", defaultTimeoutSec, "HTTPリクエストのタイムアウト時間（秒）")
	pf.IntVar(&Flags.MaxRetries, "max-retries", defaultMaxRetries, "HTTPリクエストのリトライ最大回数")
	pf.StringVar(&Flags.EnvFile, "env-file", config.DefaultEnvFile, "接続設定を読み込む dotenv ファイル")
	pf.StringVar(&Flags.ConfigFile, "config", "", "接続設定を読み込む YAML ファイル (任意)")
	pf.StringVar(&Flags.Format, "format", render.FormatTable, "出力形式 (table, json, csv)")
	pf.StringVar(&Flags.Language, "lang", client.DefaultLanguage, "ログイン時に指定する管理画面の表示言語")
	pf.IntVar(&Flags.QueryLimit, "limit", client.DefaultQueryLimit, "SQLによる代替取得時に取得する行数")
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if clibase.Flags.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if Flags.MaxRetries < 0 {
		return fmt.Errorf("--max-retries には0以上を指定してください: %d", Flags.MaxRetries)
	}
	if _, err := render.New(Flags.Format); err != nil {
		return err
	}

	log.Debug().
		Int("timeout_sec", Flags.TimeoutSec).
		Int("max_retries", Flags.MaxRetries).
		Str("format", Flags.Format).
		Msg("設定を読み込みました")
	return nil
}

// loadConfig は設定ファイル、dotenv、環境変数から接続設定を組み立てます。
// override は空でない値だけを反映します (コマンドラインでの上書き用)。
func loadConfig(override config.Config) (config.Config, error) {
	cfg, err := config.Load(Flags.ConfigFile, Flags.EnvFile)
	if err != nil {
		return cfg, err
	}

	if override.Database != "" {
		cfg.Database = override.Database
	}
	if override.Table != "" {
		cfg.Table = override.Table
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	cfg.URL, err = ensureScheme(cfg.URL)
	if err != nil {
		return cfg, fmt.Errorf("URLスキームの処理エラー: %w", err)
	}
	return cfg, nil
}

// pipelineOptions はフラグから HTTP 層とセッションの設定を組み立てます。
func pipelineOptions(concurrency int) pipeline.Options {
	return pipeline.Options{
		ClientTimeout: time.Duration(Flags.TimeoutSec) * time.Second,
		MaxRetries:    uint64(Flags.MaxRetries),
		Language:      Flags.Language,
		QueryLimit:    Flags.QueryLimit,
		Concurrency:   concurrency,
	}
}

// newRunContext は全体タイムアウトと Ctrl+C による中断を設定したコンテキストを返します。
func newRunContext() (context.Context, context.CancelFunc) {
	overallTimeout := time.Duration(Flags.TimeoutSec*overallTimeoutFactor) * time.Second
	if Flags.TimeoutSec <= 0 {
		overallTimeout = DefaultOverallTimeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, overallTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// --- エントリポイント ---

// Execute は、rootCmd を実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		browseCmd,
		scraperCmd,
		parseCmd,
	)
}
