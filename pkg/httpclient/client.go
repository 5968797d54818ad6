package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"golang.org/x/net/publicsuffix"

	"github.com/shouni/go-pma-exact/pkg/retry"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 30 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB: レスポンスボディの最大読み込みサイズ
	maxErrorBodyLength = 1024

	// 管理画面からのブロックを避けるためのブラウザ相当のヘッダー
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	AcceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptLanguage = "ru-RU,ru;q=0.9,en;q=0.8"
)

// Doer は、標準の *http.Client.Do()と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NonRetryableHTTPError はHTTP 4xx系などリトライしても結果が変わらないステータスを示すエラー型です。
type NonRetryableHTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *NonRetryableHTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディなし", e.StatusCode)
	}
	body := strings.TrimSpace(string(e.Body))
	if len(body) > maxErrorBodyLength {
		body = body[:maxErrorBodyLength] + "..."
	}
	return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディ: %s", e.StatusCode, body)
}

// Client はセッションCookieを保持し、指数バックオフを用いたリトライ付きでリクエストを送信します。
type Client struct {
	httpClient     Doer
	retryConfig    retry.Config
	acceptLanguage string
}

// ClientOption はClientの設定を行うための関数型です。
type ClientOption func(*Client)

// WithHTTPClient はカスタムのDoerを設定します。Cookieの保持はDoer側の責務になります。
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *Client) { c.httpClient = doer }
}

// WithMaxRetries は最大リトライ回数を設定します。
func WithMaxRetries(max uint64) ClientOption {
	return func(c *Client) { c.retryConfig.MaxRetries = max }
}

// WithRetryConfig はリトライ設定をまとめて置き換えます。
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) { c.retryConfig = cfg }
}

// WithAcceptLanguage は Accept-Language ヘッダーを上書きします。
func WithAcceptLanguage(value string) ClientOption {
	return func(c *Client) { c.acceptLanguage = value }
}

// New は、Cookie Jar 付きの新しいClientを生成します。
func New(timeout time.Duration, options ...ClientOption) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("Cookie Jarの初期化に失敗しました: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		retryConfig:    retry.DefaultConfig(),
		acceptLanguage: AcceptLanguage,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// addCommonHeaders は共通のHTTPヘッダーを設定します。
func (c *Client) addCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("Accept-Language", c.acceptLanguage)
}

// Get はURLからHTMLを取得し、レスポンスボディを返します。
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	op := func() error {
		var err error
		body, err = c.do(ctx, http.MethodGet, rawURL, nil)
		return err
	}

	if err := retry.Do(ctx, c.retryConfig, fmt.Sprintf("URL(%s)のフェッチ", rawURL), op, c.isHTTPRetryableError); err != nil {
		return nil, err
	}
	return body, nil
}

// PostForm はフォームデータを application/x-www-form-urlencoded でPOSTし、レスポンスボディを返します。
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	encoded := form.Encode()

	var body []byte
	op := func() error {
		var err error
		body, err = c.do(ctx, http.MethodPost, rawURL, strings.NewReader(encoded))
		return err
	}

	if err := retry.Do(ctx, c.retryConfig, fmt.Sprintf("URL(%s)へのPOSTリクエスト", rawURL), op, c.isHTTPRetryableError); err != nil {
		return nil, err
	}
	return body, nil
}

// do は実際の一度のHTTPリクエストを実行します。
func (c *Client) do(ctx context.Context, method, rawURL string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return nil, fmt.Errorf("%sリクエスト作成に失敗しました: %w", method, err)
	}
	c.addCommonHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	log.Debug().Str("method", method).Str("url", rawURL).Msg("HTTPリクエスト送信")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponseForRetry(resp); err != nil {
		return nil, err
	}

	body, err := httpkit.HandleLimitedResponse(resp, MaxBodySize)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}
	return body, nil
}

// checkResponseForRetry はHTTPレスポンスのステータスコードを評価し、リトライすべきエラーか、非リトライ対象のエラーかを返します。
// ボディを閉じるのは呼び出し元の責務です。
func checkResponseForRetry(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	bodyBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))

	// 5xx 系: リトライ対象のサーバーエラー
	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		if readErr != nil {
			return fmt.Errorf("HTTPステータスコードエラー (5xx リトライ対象, ボディ読み込み失敗): %d, 原因: %w", resp.StatusCode, readErr)
		}
		return fmt.Errorf("HTTPステータスコードエラー (5xx リトライ対象): %d, 詳細: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	// それ以外 (3xx の未追従, 4xx): 非リトライ対象
	if readErr != nil {
		return &NonRetryableHTTPError{StatusCode: resp.StatusCode}
	}
	return &NonRetryableHTTPError{StatusCode: resp.StatusCode, Body: bodyBytes}
}

// IsNonRetryableError は与えられたエラーが非リトライ対象のHTTPエラーであるかを判断します。
func IsNonRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var nonRetryable *NonRetryableHTTPError
	return errors.As(err, &nonRetryable)
}

// isHTTPRetryableError はエラーがHTTPリトライ対象かどうかを判定します。
// この関数は retry.ShouldRetryFunc 型のシグネチャを満たします。
func (c *Client) isHTTPRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// コンテキストの終了後に再送しても成功しない
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !IsNonRetryableError(err)
}
