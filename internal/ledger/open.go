package ledger

import (
	"context"

	"github.com/jonathan/apply-agent/internal/db"
	"go.uber.org/zap"
)

// OpenStore picks the backing store: Postgres when databaseURL is set, else the JSON file.
func OpenStore(ctx context.Context, ledgerPath, databaseURL string, logger *zap.Logger) (Store, error) {
	if databaseURL != "" {
		conn, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return nil, &StoreError{Op: "open", Message: "database unavailable", Cause: err}
		}
		store, err := NewPostgresStore(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return store, nil
	}
	return NewFileStore(ledgerPath, logger)
}
