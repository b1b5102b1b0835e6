package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDSN(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "file defaults",
			opts: Options{Path: "/data/graphdesk.db"},
			want: "file:/data/graphdesk.db?_pragma=journal_mode%28WAL%29&_pragma=busy_timeout%285000%29&_pragma=synchronous%28NORMAL%29&_pragma=foreign_keys%28ON%29",
		},
		{
			name: "memory skips wal",
			opts: Options{Path: "TestX/sub", Memory: true, BusyTimeout: time.Second},
			want: "file:TestX/sub?_pragma=busy_timeout%281000%29&_pragma=synchronous%28NORMAL%29&_pragma=foreign_keys%28ON%29&cache=shared&mode=memory",
		},
		{
			name: "uri characters in path are escaped",
			opts: Options{Path: "odd?name#1%.db"},
			want: "file:odd%3fname%231%25.db?_pragma=journal_mode%28WAL%29&_pragma=busy_timeout%285000%29&_pragma=synchronous%28NORMAL%29&_pragma=foreign_keys%28ON%29",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.dsn())
		})
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}

func TestOpen_FileUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphdesk.db")
	db, err := NewDB(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var mode string
	require.NoError(t, db.Reader.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.Writer.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	assert.Equal(t, 1, db.Writer.Stats().MaxOpenConnections)
	assert.Equal(t, defaultMaxReaders, db.Reader.Stats().MaxOpenConnections)
}

func TestOpen_MemoryPoolsShareData(t *testing.T) {
	db, err := Open(context.Background(), Options{Path: t.Name(), Memory: true, MaxReaders: 2})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Writer.Exec("CREATE TABLE t (v TEXT)")
	require.NoError(t, err)
	_, err = db.Writer.Exec("INSERT INTO t (v) VALUES ('x')")
	require.NoError(t, err)

	var v string
	require.NoError(t, db.Reader.QueryRow("SELECT v FROM t").Scan(&v))
	assert.Equal(t, "x", v)
	assert.Equal(t, 2, db.Reader.Stats().MaxOpenConnections)
}

func TestOpen_MissingDirectoryFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "graphdesk.db")
	_, err := NewDB(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping writer")
}
