package database

import (
	"context"

	"github.com/256dpi/lungo"
)

// OpenMemory starts an in-process engine that keeps all data in memory.
// It backs the server's -memory mode and the test suites. Close the
// returned engine when done.
func OpenMemory(ctx context.Context) (lungo.IClient, *lungo.Engine, error) {
	return lungo.Open(ctx, lungo.Options{
		Store: lungo.NewMemoryStore(),
	})
}
