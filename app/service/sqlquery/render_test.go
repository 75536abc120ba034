package sqlquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"name", "location"},
		[][]string{{"vm-a", "westeurope"}, {"vm-b", "northeurope"}},
	)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "name | location", lines[0])
	assert.Equal(t, "--- | ---", lines[1])
	assert.Equal(t, "vm-a | westeurope", lines[2])
	assert.Equal(t, "vm-b | northeurope", lines[3])
}

func TestRenderTableEmpty(t *testing.T) {
	assert.Equal(t, "(no rows)", renderTable([]string{"name"}, nil))
}

func TestRenderTableTruncates(t *testing.T) {
	var rows [][]string
	for i := 0; i < 100; i++ {
		rows = append(rows, []string{strings.Repeat("x", 100)})
	}

	out := renderTable([]string{"name"}, rows)

	assert.True(t, strings.HasSuffix(out, "... (truncated) ..."))
	assert.Less(t, len(out), maxTableChars+300)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "SELECT 1;", stripCodeFence("SELECT 1;"))
	assert.Equal(t, "SELECT 1;", stripCodeFence("```sql\nSELECT 1;\n```"))
	assert.Equal(t, "SELECT 1;", stripCodeFence("```\nSELECT 1;\n```"))
}
