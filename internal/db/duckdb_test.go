package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	conn, err := Open(Config{})
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow("SELECT 40 + 2").Scan(&n))
	assert.Equal(t, 42, n)
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	conn, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	_, err = conn.Exec("CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = os.Stat(filepath.Join(dir, "duckdb", "quake.duckdb"))
	assert.NoError(t, err)
}

func TestOpenBlocksExternalAccess(t *testing.T) {
	conn, err := Open(Config{})
	require.NoError(t, err)
	defer conn.Close()

	for _, q := range []string{
		"SELECT * FROM read_text('/etc/passwd')",
		"SELECT * FROM read_csv('/etc/passwd')",
		"SELECT * FROM read_parquet('http://example.com/x.parquet')",
	} {
		_, err := conn.Exec(q)
		assert.Error(t, err, q)
	}

	_, err = conn.Exec("SET enable_external_access = true")
	assert.Error(t, err)
}
