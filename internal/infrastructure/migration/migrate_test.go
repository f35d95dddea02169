package migration

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/nfce/danfe/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)

	sort.Strings(names)
	assert.Equal(t, "000001_create_print_jobs.down.sql", names[0])
}

func TestEmbeddedMigrationCreatesPrintJobs(t *testing.T) {
	up, err := fs.ReadFile(migrations.FS, "000001_create_print_jobs.up.sql")
	require.NoError(t, err)

	sql := string(up)
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS print_jobs")
	for _, column := range []string{"action", "printer_name", "source", "document_number", "status", "error_message", "submitted_at", "finished_at"} {
		assert.Contains(t, sql, column)
	}
}
