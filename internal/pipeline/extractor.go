package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-pma-exact/pkg/client"
	"github.com/shouni/go-pma-exact/pkg/config"
	"github.com/shouni/go-pma-exact/pkg/extract"
	"github.com/shouni/go-pma-exact/pkg/httpclient"
	"github.com/shouni/go-pma-exact/pkg/scraper"
	"github.com/shouni/go-pma-exact/pkg/types"
)

// Options は HTTP 層とセッションの設定です。
type Options struct {
	ClientTimeout time.Duration
	MaxRetries    uint64
	Language      string
	QueryLimit    int
	Concurrency   int
}

// NewSession は HTTP クライアントを初期化し、ログイン済みのセッションを返します。
func NewSession(ctx context.Context, cfg config.Config, opts Options) (*client.Client, error) {
	// 1. 外部の HTTP クライアントを初期化 (依存性の初期化)
	httpClient, err := httpclient.New(opts.ClientTimeout, httpclient.WithMaxRetries(opts.MaxRetries))
	if err != nil {
		return nil, fmt.Errorf("HTTPクライアントの初期化エラー: %w", err)
	}

	// 2. セッションを初期化 (DI)
	clientOpts := []client.Option{client.WithQueryLimit(opts.QueryLimit)}
	if opts.Language != "" {
		clientOpts = append(clientOpts, client.WithLanguage(opts.Language))
	}
	session, err := client.New(cfg.URL, httpClient, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("セッションの初期化エラー: %w", err)
	}

	// 3. ログイン
	if err := session.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, err
	}
	return session, nil
}

// FetchTable は、ログインしてから cfg.Database.cfg.Table を取得するメインの処理パイプラインです。
func FetchTable(ctx context.Context, cfg config.Config, opts Options) (*extract.Result, error) {
	session, err := NewSession(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	result, err := session.FetchTable(ctx, cfg.Database, cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("テーブル %s.%s の取得エラー: %w", cfg.Database, cfg.Table, err)
	}
	return result, nil
}

// FetchTables は、1つのセッションで複数テーブルを並列に取得します。
func FetchTables(ctx context.Context, cfg config.Config, tables []string, opts Options) ([]types.TableResult, error) {
	session, err := NewSession(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	s := scraper.NewParallelScraper(session, opts.Concurrency)
	return s.ScrapeInParallel(ctx, cfg.Database, tables), nil
}
