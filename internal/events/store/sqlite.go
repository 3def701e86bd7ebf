package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"event-scheduler/internal/models"
)

// SQLiteBackend stores the collection in an events table. Save replaces all
// rows in one transaction; position keeps insertion order.
type SQLiteBackend struct {
	Bun *bun.DB
}

func OpenSQLite(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection so an in-memory database is shared by every query.
	sqldb.SetMaxOpenConns(1)

	backend := NewSQLiteBackend(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := backend.Migrate(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return backend, nil
}

func NewSQLiteBackend(db *bun.DB) *SQLiteBackend {
	return &SQLiteBackend{Bun: db}
}

func (d *SQLiteBackend) Migrate(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.Event)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

func (d *SQLiteBackend) Load(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return events, nil
}

func (d *SQLiteBackend) Save(ctx context.Context, events []models.Event) error {
	rows := slices.Clone(events)
	for i := range rows {
		rows[i].Position = i
	}

	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return fmt.Errorf("clear events: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
		return nil
	})
}

func (d *SQLiteBackend) Close() error {
	return d.Bun.Close()
}
