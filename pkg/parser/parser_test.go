package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	t.Run("正常ケース_テーブルを含む", func(t *testing.T) {
		doc, err := ParseString(`<html><body><table><tr><td>1</td></tr></table></body></html>`)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Find("table").Length())
		assert.Equal(t, "1", doc.Find("td").Text())
	})

	t.Run("エッジケース_閉じタグなしのセル", func(t *testing.T) {
		doc, err := ParseString(`<table><tr><td>a<td>b<tr><td>c</table>`)
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Find("tr").Length())
		assert.Equal(t, 3, doc.Find("td").Length())
	})

	t.Run("エッジケース_空文字列", func(t *testing.T) {
		doc, err := ParseString("")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Find("table").Length())
	})
}

func TestInputValue(t *testing.T) {
	doc, err := ParseBytes([]byte(`<form>
		<input type="hidden" name="token" value="abc123">
		<input type="hidden" name="token" value="second">
		<input type="text" name="empty">
	</form>`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		inputName string
		expected  string
		found     bool
	}{
		{"最初の要素を返す", "token", "abc123", true},
		{"value属性なし", "empty", "", false},
		{"要素なし", "missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := InputValue(doc, tt.inputName)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}
