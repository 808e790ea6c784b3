package postgres

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableDDL returns the column block of the CREATE TABLE statement for table
func tableDDL(t *testing.T, table string) string {
	t.Helper()

	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	re := regexp.MustCompile(`(?is)CREATE TABLE IF NOT EXISTS ` + table + `\s*\((.*?)\n\);`)
	for _, name := range files {
		body, err := migrations.ReadFile(name)
		require.NoError(t, err)
		if m := re.FindSubmatch(body); m != nil {
			return string(m[1])
		}
	}
	t.Fatalf("no CREATE TABLE for %s", table)
	return ""
}

func columnLine(t *testing.T, ddl, column string) string {
	t.Helper()
	for _, line := range strings.Split(ddl, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == column {
			return line
		}
	}
	t.Fatalf("no column %s", column)
	return ""
}

func TestProductDefaults(t *testing.T) {
	ddl := tableDDL(t, "products")

	assert.Contains(t, columnLine(t, ddl, "tax_included"), "DEFAULT TRUE")
	assert.Contains(t, columnLine(t, ddl, "tax_rate"), "DEFAULT 19")
	assert.Contains(t, columnLine(t, ddl, "stock"), "CHECK (stock >= 0)")
}

func TestInvoiceItemsDefaultToTaxExclusive(t *testing.T) {
	ddl := tableDDL(t, "invoice_items")

	assert.Contains(t, columnLine(t, ddl, "tax_included"), "DEFAULT FALSE")
}
