package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/aerotiles/internal/store"
)

// initStore opens the run history database and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate run history")
	}
	return st, nil
}
