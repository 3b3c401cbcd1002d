package database

import (
	"context"
	"testing"

	"github.com/256dpi/lungo"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) lungo.IDatabase {
	t.Helper()

	client, engine, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	db := client.Database("quill-test")
	require.NoError(t, EnsureIndexes(context.Background(), db))
	return db
}
