package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-pma-exact/pkg/extract"
)

func sampleResult() *extract.Result {
	return &extract.Result{
		Headers: []string{"ID", "Name"},
		Rows:    [][]string{{"1", "Alice"}, {"2", "Bob"}},
		Table:   "users",
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format   string
		expected Renderer
		hasError bool
	}{
		{"", &Console{}, false},
		{"table", &Console{}, false},
		{"JSON", JSON{}, false},
		{"csv", CSV{}, false},
		{"xml", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := New(tt.format)
			if tt.hasError {
				assert.Error(t, err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expected, r)
		})
	}
}

func TestColumnWidths(t *testing.T) {
	result := &extract.Result{
		Headers: []string{"ID", "Name", "Описание"},
		Rows: [][]string{
			{"1", strings.Repeat("x", 12), strings.Repeat("я", 60)},
		},
	}
	assert.Equal(t, []int{MinColumnWidth, 12, MaxColumnWidth}, ColumnWidths(result))
}

func TestConsole_Render(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	c := &Console{Now: func() time.Time { return fixed }}

	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf, sampleResult()))
	out := buf.String()

	header := "ID       | Name    "
	assert.Contains(t, out, "TABLE: users\n")
	assert.Contains(t, out, "Records: 2\n")
	assert.Contains(t, out, "Time: 14:07:09 05.03.2024\n")
	assert.Contains(t, out, header+"\n"+strings.Repeat("-", len(header))+"\n")
	assert.Contains(t, out, "1        | Alice   \n")
	assert.Contains(t, out, "2        | Bob     \n")
	assert.True(t, strings.HasSuffix(out, "Columns: 2 | Rows: 2\n"))
}

func TestConsole_LongCellsAreNotTruncated(t *testing.T) {
	long := strings.Repeat("z", 50)
	result := &extract.Result{Headers: []string{"A"}, Rows: [][]string{{long}}, Table: "t"}

	var buf bytes.Buffer
	require.NoError(t, (&Console{}).Render(&buf, result))
	assert.Contains(t, buf.String(), long+"\n")
}

func TestJSON_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON{}.Render(&buf, sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "users", decoded["table"])
	assert.Len(t, decoded["rows"], 2)
}

func TestCSV_Render(t *testing.T) {
	var buf bytes.Buffer
	result := sampleResult()
	result.Rows = append(result.Rows, []string{"3", "Smith, John"})

	require.NoError(t, CSV{}.Render(&buf, result))
	assert.Equal(t, "ID,Name\n1,Alice\n2,Bob\n3,\"Smith, John\"\n", buf.String())
}
