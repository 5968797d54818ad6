package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shouni/go-pma-exact/pkg/extract"
	"github.com/shouni/go-pma-exact/pkg/types"
)

const (
	// DefaultMaxConcurrency は、並列取得のデフォルトの最大同時実行数を定義します。
	DefaultMaxConcurrency = 3
	// DefaultScrapeRateLimit は、リクエスト開始の最小間隔を定義します。
	DefaultScrapeRateLimit = 500 * time.Millisecond
)

// TableFetcher は、ログイン済みのセッションで1つのテーブルを取得する機能です。
// *client.Client がこれを満たします。
type TableFetcher interface {
	FetchTable(ctx context.Context, database, table string) (*extract.Result, error)
}

// Scraper は複数テーブルの取得機能を提供するインターフェースです。
type Scraper interface {
	ScrapeInParallel(ctx context.Context, database string, tables []string) []types.TableResult
}

// ParallelScraper は Scraper インターフェースを実装する並列処理構造体です。
type ParallelScraper struct {
	fetcher        TableFetcher
	maxConcurrency int           // 最大並列数を保持するフィールド
	rateLimit      time.Duration // レートリミッターを保持するフィールド
}

// Option は ParallelScraper の設定を行うための関数型です。
type Option func(*ParallelScraper)

// WithRateLimit はリクエスト開始の最小間隔を設定します。
func WithRateLimit(d time.Duration) Option {
	return func(s *ParallelScraper) {
		if d > 0 {
			s.rateLimit = d
		}
	}
}

// NewParallelScraper は ParallelScraper を初期化します。
// 依存性として TableFetcher と、最大同時実行数を受け取ります。
func NewParallelScraper(fetcher TableFetcher, maxConcurrency int, opts ...Option) *ParallelScraper {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	s := &ParallelScraper{
		fetcher:        fetcher,
		maxConcurrency: maxConcurrency,
		rateLimit:      DefaultScrapeRateLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScrapeInParallel は各テーブルを並列に取得します。結果は tables と同じ順序で返されます。
func (s *ParallelScraper) ScrapeInParallel(ctx context.Context, database string, tables []string) []types.TableResult {
	var wg sync.WaitGroup
	results := make([]types.TableResult, len(tables))

	// バッファ付きチャネルをセマフォとして使用し、同時実行数を制限する
	semaphore := make(chan struct{}, s.maxConcurrency)

	ticker := time.NewTicker(s.rateLimit)
	defer ticker.Stop()

	for i, table := range tables {
		wg.Add(1)

		// maxConcurrency件実行中の場合はここでブロックして待機
		semaphore <- struct{}{}

		go func(idx int, name string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			// 先頭のリクエストは待たない
			if idx > 0 {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					results[idx] = types.TableResult{Table: name, Error: ctx.Err()}
					return
				}
			}

			result, err := s.fetcher.FetchTable(ctx, database, name)
			if err != nil {
				log.Warn().Err(err).Str("table", name).Msg("テーブルの取得に失敗しました")
				err = fmt.Errorf("テーブル %s の取得に失敗しました: %w", name, err)
			}
			results[idx] = types.TableResult{
				Table:  name,
				Result: result,
				Error:  err,
			}
		}(i, table)
	}

	wg.Wait()
	return results
}
