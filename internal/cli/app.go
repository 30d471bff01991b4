package cli

import (
	"context"
	"database/sql"

	"github.com/asaidimu/go-roster/core/persistence"
	"github.com/asaidimu/go-roster/sqlstore"
	"github.com/asaidimu/go-roster/users"
	"go.uber.org/zap"
)

// App is an opened store with the users service on top of it.
type App struct {
	DB      *sql.DB
	Store   *persistence.Persistence
	Users   *users.Service
	Logger  *zap.Logger
	Created []string
}

// Open connects to the configured database and builds the users service.
// With migrate set, missing tables are created first.
func Open(ctx context.Context, cfg *Config, logger *zap.Logger, migrate bool) (*App, error) {
	db, dialect, err := sqlstore.Open(ctx, cfg.Store())
	if err != nil {
		return nil, DBConnectError("connecting to database", err)
	}

	catalog, err := users.NewCatalog()
	if err != nil {
		db.Close()
		return nil, GeneralError("building catalog", err)
	}
	options := sqlstore.DefaultInteractorOptions()
	options.TablePrefix = cfg.Database.TablePrefix
	interactor := sqlstore.NewInteractor(db, dialect, catalog, logger, options)

	store, err := persistence.NewPersistence(interactor, catalog, logger)
	if err != nil {
		db.Close()
		return nil, GeneralError("initializing persistence", err)
	}

	app := &App{DB: db, Store: store, Logger: logger}
	if migrate {
		app.Created, err = store.Migrate(ctx)
		if err != nil {
			db.Close()
			return nil, GeneralError("migrating", err)
		}
	}

	app.Users, err = users.NewService(store, logger)
	if err != nil {
		db.Close()
		return nil, GeneralError("initializing users service", err)
	}
	return app, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
