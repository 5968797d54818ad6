package cmd

import (
	"fmt"
	"net/url"
	"strings"
)

// ensureScheme は、管理画面URLのスキームが存在しない場合に https:// を補完します。
// 既にスキームが存在する場合は、それが http または https であるかをチェックします。
func ensureScheme(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	// スキームがない場合、HTTPSをデフォルトとして付与
	// ("localhost:8080" のような host:port も url.Parse ではスキームとして解釈されるため先に判定する)
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("無効なURLスキームです。httpまたはhttpsを指定してください: %s", rawURL)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URLにホスト名がありません: %s", rawURL)
	}
	return rawURL, nil
}
