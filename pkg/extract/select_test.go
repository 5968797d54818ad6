package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-pma-exact/pkg/parser"
)

func TestSelectCandidate(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		expectedID string
		found      bool
	}{
		{
			name: "table_resultsが最優先",
			html: `<table id="a" class="data"><tr><td>x</td></tr></table>
				<table id="b" class="table_results"><tr><td>y</td></tr></table>`,
			expectedID: "b",
			found:      true,
		},
		{
			name: "class属性のdataを含む",
			html: `<table id="a"><tr><td>x</td></tr></table>
				<table id="b" class="sqlqueryresults data"><tr><td>y</td></tr></table>`,
			expectedID: "b",
			found:      true,
		},
		{
			name: "id属性のtableを含む",
			html: `<table id="plain"><tr><td>x</td></tr></table>
				<table id="tablestructure"><tr><td>y</td></tr></table>`,
			expectedID: "tablestructure",
			found:      true,
		},
		{
			name: "key_valueテキストを含む",
			html: "<table id=\"a\"><tr><td>x</td></tr><tr><td>y</td></tr><tr><td>z</td></tr></table>" +
				"<table id=\"b\"><tr><td>`id` = `1`</td></tr></table>",
			expectedID: "b",
			found:      true,
		},
		{
			name: "典型的な列名を大文字小文字を区別せずに含む",
			html: `<table id="a"><tr><td>x</td></tr><tr><td>y</td></tr></table>
				<table id="b"><tr><td>EMAIL</td></tr></table>`,
			expectedID: "b",
			found:      true,
		},
		{
			name: "行数が最大のテーブル_同数なら先頭",
			html: `<table id="a"><tr><td>x</td></tr></table>
				<table id="b"><tr><td>1</td></tr><tr><td>2</td></tr></table>
				<table id="c"><tr><td>3</td></tr><tr><td>4</td></tr></table>`,
			expectedID: "b",
			found:      true,
		},
		{
			name:  "テーブルなし",
			html:  `<div>id name user email</div>`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.ParseString(tt.html)
			require.NoError(t, err)

			selected, ok := SelectCandidate(doc)
			assert.Equal(t, tt.found, ok)
			if !tt.found {
				return
			}
			id, _ := selected.Attr("id")
			assert.Equal(t, tt.expectedID, id)
		})
	}
}
