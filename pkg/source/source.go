package source

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/dd0wney/cluso-socialgraph/pkg/config"
)

// ErrUnsupportedSource is returned by New for an unknown source kind.
var ErrUnsupportedSource = errors.New("unsupported source")

// Source loads a complete dataset.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
	Kind() string
}

// New builds the source named by cfg. A "none" source returns nil and no
// error; the graph is then only fed through the API.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Kind {
	case config.SourceFile:
		return NewFileSource(cfg.Path), nil
	case config.SourcePostgres:
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		return NewPostgresSource(db), nil
	case config.SourceNone, "":
		return nil, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedSource, "kind %q", cfg.Kind)
	}
}
