package tracker

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/domain/ports"
)

var _ ports.StateStore = (*BunStateStore)(nil)

// searchState is one persisted last-search timestamp.
type searchState struct {
	bun.BaseModel `bun:"table:search_state"`

	Key          string    `bun:"key,pk"`
	LastSearched time.Time `bun:"last_searched,notnull"`
}

// BunStateStore persists last-search timestamps in a SQLite database. Same
// contract as the file store; Save replaces the full mapping in one
// transaction so the overwrite semantics carry over.
type BunStateStore struct {
	db *bun.DB
}

func NewBunStateStore(path string) (*BunStateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, models.Errorf(models.KindStatePersist, "create state directory for %s: %w", path, err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, models.Errorf(models.KindStateCorrupt, "open state database %s: %w", path, err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*searchState)(nil)).IfNotExists().Exec(context.Background()); err != nil {
		db.Close()
		return nil, models.Errorf(models.KindStateCorrupt, "create search_state table in %s: %w", path, err)
	}
	return &BunStateStore{db: db}, nil
}

func (s *BunStateStore) Load(ctx context.Context) (map[string]time.Time, error) {
	var rows []searchState
	if err := s.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, models.Errorf(models.KindStateCorrupt, "load search state: %w", err)
	}

	state := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		state[row.Key] = row.LastSearched
	}
	return state, nil
}

func (s *BunStateStore) Save(ctx context.Context, state map[string]time.Time) error {
	rows := make([]searchState, 0, len(state))
	for key, ts := range state {
		rows = append(rows, searchState{Key: key, LastSearched: ts})
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*searchState)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return models.Errorf(models.KindStatePersist, "save search state: %w", err)
	}
	return nil
}

func (s *BunStateStore) Close() error {
	return s.db.Close()
}
