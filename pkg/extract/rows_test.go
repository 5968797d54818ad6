package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-pma-exact/pkg/parser"
)

func TestCleanCell(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{"通常のテキスト", "  Alice  ", "Alice", true},
		{"内部の空白は1つに圧縮", " Alice  Smith\n\t ", "Alice Smith", true},
		{"削除ラベル_ru", "Удалить", "", false},
		{"削除ラベル_en", "Delete", "", false},
		{"バツ印", "×", "", false},
		{"チェック印", "✓", "", false},
		{"空文字列", "   ", "", false},
		{"100文字ちょうど", strings.Repeat("a", 100), strings.Repeat("a", 100), true},
		{"100文字超", strings.Repeat("a", 101), "", false},
		{"ナビゲーション語_大文字", "НАСТРОЙКИ", "", false},
		{"key_value_単一", "`id` = `5`", "5", true},
		{"key_value_複数", "`col` = `value1`\n`col` = `value2`", "value1 value2", true},
		{"key_value_重複排除", "`a` = 'x'\n`b` = \"x\"\n`c` = `y`", "x y", true},
		{"key_value_不一致行は無視", "`a` = `x`\nplain line\nkey = noquote", "x", true},
		{"key_value_値なし", "`a` =\n`b` = ``", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := e.cleanCell(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		row      []string
		width    int
		expected [][]string
	}{
		{"列数以下はそのまま", []string{"1"}, 2, [][]string{{"1"}}},
		{"先頭列の除去", []string{"x", "42", "Alice"}, 2, [][]string{{"42", "Alice"}}},
		{"切り詰め", []string{"1", "2", "3", "4"}, 3, [][]string{{"1", "2", "3"}}},
		{
			"詰め込まれたレコードの分割",
			[]string{"1", "Alice", "2", "Bob", "3", "Carol"},
			2,
			[][]string{{"1", "Alice"}, {"2", "Bob"}, {"3", "Carol"}},
		},
		{
			"数字が連続する箇所は1つずつ進める",
			[]string{"1", "2", "Bob", "x", "3"},
			2,
			[][]string{{"2", "Bob"}},
		},
		{"組が見つからない", []string{"a", "b", "c", "d", "e"}, 2, nil},
		{"ヘッダーなし", []string{"7", "Eve", "8"}, 0, [][]string{{"7", "Eve"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reconcile(tt.row, tt.width))
		})
	}
}

func TestReconcile_DoesNotAliasInput(t *testing.T) {
	row := []string{"1", "2", "3", "4"}
	out := reconcile(row, 3)
	out[0][0] = "changed"
	assert.Equal(t, "1", row[0])
}

func TestExtractRows(t *testing.T) {
	e := New()

	t.Run("チェックボックスとボタンのセルは除外", func(t *testing.T) {
		doc, err := parser.ParseString(`<table>
			<tr><th>ID</th><th>Name</th></tr>
			<tr><td><input type="checkbox"></td><td>1</td><td>Alice</td><td><button>Go</button></td></tr>
		</table>`)
		require.NoError(t, err)

		headers, rows, err := e.ExtractRows(doc.Find("table"))
		require.NoError(t, err)
		assert.Equal(t, []string{"ID", "Name"}, headers)
		assert.Equal(t, [][]string{{"1", "Alice"}}, rows)
	})

	t.Run("ナビゲーション行は分類されない", func(t *testing.T) {
		doc, err := parser.ParseString(`<table>
			<tr><td>Главная панель</td></tr>
			<tr><td>ID</td><td>Name</td></tr>
			<tr><td>1</td><td>Alice</td></tr>
		</table>`)
		require.NoError(t, err)

		headers, rows, err := e.ExtractRows(doc.Find("table"))
		require.NoError(t, err)
		assert.Equal(t, []string{"ID", "Name"}, headers)
		assert.Equal(t, [][]string{{"1", "Alice"}}, rows)
	})

	t.Run("先頭行が空なら5列以下の行をヘッダーに採用", func(t *testing.T) {
		doc, err := parser.ParseString(`<table>
			<tr></tr>
			<tr><td>ID</td><td>Name</td><td>Email</td></tr>
			<tr><td>1</td><td>Alice</td><td>a@example.com</td></tr>
		</table>`)
		require.NoError(t, err)

		headers, rows, err := e.ExtractRows(doc.Find("table"))
		require.NoError(t, err)
		assert.Equal(t, []string{"ID", "Name", "Email"}, headers)
		assert.Equal(t, [][]string{{"1", "Alice", "a@example.com"}}, rows)
	})

	t.Run("100文字を超える値の行は除外", func(t *testing.T) {
		longValue := strings.Repeat("x", MaxCellLength+20)
		doc, err := parser.ParseString("<table>" +
			"<tr><th>ID</th><th>Note</th></tr>" +
			"<tr><td>1</td><td>`note` = `" + longValue + "`</td></tr>" +
			"<tr><td>2</td><td>`note` = `short`</td></tr>" +
			"</table>")
		require.NoError(t, err)

		value, ok := e.cleanCell("`note` = `" + longValue + "`")
		require.True(t, ok)
		require.Equal(t, longValue, value)

		headers, rows, err := e.ExtractRows(doc.Find("table"))
		require.NoError(t, err)
		assert.Equal(t, []string{"ID", "Note"}, headers)
		assert.Equal(t, [][]string{{"2", "short"}}, rows)
	})

	t.Run("データ行なし", func(t *testing.T) {
		doc, err := parser.ParseString(`<table><tr><td>ID</td></tr><tr><td>Edit</td></tr></table>`)
		require.NoError(t, err)

		_, _, err = e.ExtractRows(doc.Find("table"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
