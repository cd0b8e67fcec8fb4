package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres serves settings from the settings table created by the
// installer. Rows are keyed by (collection, name).
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a database-backed settings provider.
func NewPostgres(log *slog.Logger, pool *pgxpool.Pool) *Postgres {
	if log == nil {
		log = slog.Default()
	}
	return &Postgres{
		pool:   pool,
		logger: log.With(slog.String("service", "settings")),
	}
}

// Collection returns the requested keys of a settings collection.
func (p *Postgres) Collection(ctx context.Context, name string, keys []string) (map[string]string, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("settings pool not configured")
	}
	rows, err := p.pool.Query(ctx,
		`SELECT name, value FROM settings WHERE collection = $1 AND name = ANY($2)`,
		name, keys,
	)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return result, nil
}
