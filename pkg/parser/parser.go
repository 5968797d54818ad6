package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseHTML は HTML を golang.org/x/net/html でパースし、goquery.Document として返します。
// 壊れたマークアップもブラウザと同じ規則で補完されます。
func ParseHTML(r io.Reader) (*goquery.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("HTMLのパースに失敗しました: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// ParseString は文字列の HTML をパースします。
func ParseString(document string) (*goquery.Document, error) {
	return ParseHTML(strings.NewReader(document))
}

// ParseBytes はバイト配列の HTML をパースします。
func ParseBytes(body []byte) (*goquery.Document, error) {
	return ParseHTML(bytes.NewReader(body))
}

// InputValue は name 属性が一致する最初の input 要素の value を返します。
// 見つからない場合は ok=false になります。
func InputValue(doc *goquery.Document, name string) (value string, ok bool) {
	input := doc.Find(fmt.Sprintf(`input[name=%q]`, name)).First()
	if input.Length() == 0 {
		return "", false
	}
	return input.Attr("value")
}
