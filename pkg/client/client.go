package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shouni/go-pma-exact/pkg/extract"
	"github.com/shouni/go-pma-exact/pkg/parser"
)

// ----------------------------------------------------------------------
// 定数とインターフェース
// ----------------------------------------------------------------------

const (
	// DefaultLanguage は、ログイン時に要求する管理画面の表示言語です。
	DefaultLanguage = "ru"
	// DefaultQueryLimit は、SQLによる代替取得時の LIMIT 値です。
	DefaultQueryLimit = 20

	indexPath = "/index.php"
)

// ErrAuthFailed は、ログイン後のページにログアウトへの導線が無かったことを示します。
var ErrAuthFailed = errors.New("phpMyAdminへのログインに失敗しました")

// HTTPClient は、セッションCookieを保持したままGET/POSTを行うクライアントです。
// *httpclient.Client がこれを満たします。
type HTTPClient interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
	PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error)
}

// Client は phpMyAdmin のセッションを管理し、テーブルの閲覧ページからデータを取得します。
type Client struct {
	baseURL    string
	http       HTTPClient
	extractor  *extract.Extractor
	language   string
	queryLimit int

	mu    sync.RWMutex
	token string
}

// Option はClientの設定を行うための関数型です。
type Option func(*Client)

// WithLanguage はログイン時の表示言語 (lang パラメータ) を設定します。
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithExtractor はテーブル抽出に使う Extractor を差し替えます。
func WithExtractor(e *extract.Extractor) Option {
	return func(c *Client) { c.extractor = e }
}

// WithQueryLimit はSQLによる代替取得時の LIMIT 値を設定します。
func WithQueryLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.queryLimit = limit
		}
	}
}

// New は、新しいClientを生成します。baseURL 末尾のスラッシュは取り除かれます。
func New(baseURL string, httpClient HTTPClient, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client.New: baseURL cannot be empty")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("client.New: HTTPClient cannot be nil")
	}

	c := &Client{
		baseURL:    baseURL,
		http:       httpClient,
		extractor:  extract.New(),
		language:   DefaultLanguage,
		queryLimit: DefaultQueryLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ----------------------------------------------------------------------
// 認証
// ----------------------------------------------------------------------

// Login はログインフォームのCSRFトークンを取得し、認証情報をPOSTします。
// 応答に「logout」または「выход」が含まれていれば成功とみなします。
func (c *Client) Login(ctx context.Context, username, password string) error {
	loginURL := c.baseURL + indexPath
	log.Info().Str("url", loginURL).Msg("phpMyAdminに接続しています")

	// 1. ログインページからトークンを取得
	page, err := c.http.Get(ctx, loginURL)
	if err != nil {
		return fmt.Errorf("ログインページの取得に失敗しました: %w", err)
	}
	token := c.readToken(page)
	if token != "" {
		log.Debug().Msg("CSRFトークンを取得しました")
	}

	// 2. 認証情報の送信
	form := url.Values{
		"pma_username": {username},
		"pma_password": {password},
		"server":       {"1"},
		"lang":         {c.language},
	}
	if token != "" {
		form.Set("token", token)
	}

	body, err := c.http.PostForm(ctx, loginURL, form)
	if err != nil {
		return fmt.Errorf("認証情報の送信に失敗しました: %w", err)
	}

	// 3. 結果の判定
	if !isLoggedIn(string(body)) {
		return ErrAuthFailed
	}

	// ログイン後はトークンが更新されることがある
	if fresh := c.readToken(body); fresh != "" {
		token = fresh
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	log.Info().Str("user", username).Msg("ログインに成功しました")
	return nil
}

func isLoggedIn(page string) bool {
	lowered := strings.ToLower(page)
	return strings.Contains(lowered, "logout") || strings.Contains(lowered, "выход")
}

func (c *Client) readToken(page []byte) string {
	doc, err := parser.ParseBytes(page)
	if err != nil {
		return ""
	}
	token, _ := parser.InputValue(doc, "token")
	return token
}

// Token は現在のセッションのCSRFトークンを返します。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ----------------------------------------------------------------------
// データ取得
// ----------------------------------------------------------------------

// BrowseURLs は、テーブル閲覧ページとして試すURLを優先順に返します。
// 管理画面のバージョンによって有効なルートが異なります。
func (c *Client) BrowseURLs(database, table string) []string {
	db := url.QueryEscape(database)
	tbl := url.QueryEscape(table)
	index := c.baseURL + indexPath
	return []string{
		fmt.Sprintf("%s?route=/table/browse&db=%s&table=%s", index, db, tbl),
		fmt.Sprintf("%s?db=%s&table=%s&target=browse", index, db, tbl),
		fmt.Sprintf("%s?route=/sql&db=%s&table=%s", index, db, tbl),
		fmt.Sprintf("%s?db=%s&table=%s", index, db, tbl),
	}
}

// FetchTable は閲覧ページを順に試し、テーブルを抽出できた最初の結果を返します。
// いずれも失敗した場合は SELECT クエリを実行して結果ページから抽出します。
func (c *Client) FetchTable(ctx context.Context, database, table string) (*extract.Result, error) {
	log.Info().Str("database", database).Str("table", table).Msg("データを取得しています")

	for _, browseURL := range c.BrowseURLs(database, table) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.http.Get(ctx, browseURL)
		if err != nil {
			log.Debug().Err(err).Str("url", browseURL).Msg("閲覧ページの取得に失敗したため次のURLを試します")
			continue
		}

		result, err := c.extractor.Extract(string(page), table)
		if err != nil {
			log.Debug().Str("url", browseURL).Msg("閲覧ページにデータテーブルがありません")
			continue
		}
		log.Debug().Str("url", browseURL).Int("rows", len(result.Rows)).Msg("データテーブルを抽出しました")
		return result, nil
	}

	return c.QueryTable(ctx, database, table)
}

// QueryTable は SELECT * FROM `table` LIMIT n をSQL画面にPOSTし、結果ページからテーブルを抽出します。
func (c *Client) QueryTable(ctx context.Context, database, table string) (*extract.Result, error) {
	sqlURL := fmt.Sprintf("%s%s?route=/sql&db=%s", c.baseURL, indexPath, url.QueryEscape(database))
	query := SelectQuery(table, c.queryLimit)
	log.Debug().Str("query", query).Msg("SQLクエリで代替取得します")

	form := url.Values{
		"sql_query": {query},
		"submit":    {"Go"},
	}
	if token := c.Token(); token != "" {
		form.Set("token", token)
	}

	page, err := c.http.PostForm(ctx, sqlURL, form)
	if err != nil {
		return nil, fmt.Errorf("SQLクエリの実行に失敗しました (テーブル: %s): %w", table, err)
	}

	result, err := c.extractor.Extract(string(page), table)
	if err != nil {
		return nil, fmt.Errorf("テーブル %s.%s: %w", database, table, err)
	}
	return result, nil
}

// SelectQuery はテーブル先頭 limit 行を取得するクエリを組み立てます。
// 識別子中のバッククォートはエスケープされます。
func SelectQuery(table string, limit int) string {
	quoted := strings.ReplaceAll(table, "`", "``")
	return fmt.Sprintf("SELECT * FROM `%s` LIMIT %d", quoted, limit)
}
