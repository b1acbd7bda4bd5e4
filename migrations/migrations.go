// Package migrations embeds the database schema and applies it with goose.
package migrations

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed *.sql
var FS embed.FS

// Direction selects which way Run moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Run applies (Up) or rolls back one step of (Down) the embedded migrations.
func Run(ctx context.Context, pool *pgxpool.Pool, dir Direction, logger *logrus.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		return errors.Wrap(err, "failed to create migration provider")
	}

	var results []*goose.MigrationResult
	switch dir {
	case Up:
		results, err = provider.Up(ctx)
	case Down:
		var res *goose.MigrationResult
		res, err = provider.Down(ctx)
		if res != nil {
			results = append(results, res)
		}
	default:
		return errors.Errorf("unknown migration direction %q", dir)
	}
	for _, r := range results {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"version":  r.Source.Version,
				"path":     r.Source.Path,
				"duration": r.Duration,
			}).Infof("migration %s applied", dir)
		}
	}
	if err != nil {
		return errors.Wrapf(err, "failed to migrate %s", dir)
	}
	return nil
}
