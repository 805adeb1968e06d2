package source

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

const (
	selectPeople        = `SELECT id, name FROM people ORDER BY id`
	selectRelationships = `SELECT id, person1_id, person2_id, intensity, pending FROM relationships ORDER BY id`
)

// PostgresSource reads the people and relationships tables.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource wraps an open database handle.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Kind returns "postgres".
func (s *PostgresSource) Kind() string { return "postgres" }

// Ping checks connectivity.
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// Load reads both tables in one read-only transaction so people and
// relationships come from the same snapshot.
func (s *PostgresSource) Load(ctx context.Context) (*Dataset, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, errors.Wrap(err, "begin snapshot")
	}
	defer func() { _ = tx.Rollback() }()

	var ds Dataset
	if ds.Nodes, err = loadPeople(ctx, tx); err != nil {
		return nil, err
	}
	if ds.Edges, err = loadRelationships(ctx, tx); err != nil {
		return nil, err
	}
	if err := normalise(&ds); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit snapshot")
	}
	return &ds, nil
}

func loadPeople(ctx context.Context, tx *sql.Tx) ([]visualization.NodeInput, error) {
	rows, err := tx.QueryContext(ctx, selectPeople)
	if err != nil {
		return nil, errors.Wrap(err, "query people")
	}
	defer rows.Close()

	var people []visualization.NodeInput
	for rows.Next() {
		var n visualization.NodeInput
		var name sql.NullString
		if err := rows.Scan(&n.ID, &name); err != nil {
			return nil, errors.Wrap(err, "scan person")
		}
		n.Label = name.String
		people = append(people, n)
	}
	return people, errors.Wrap(rows.Err(), "iterate people")
}

func loadRelationships(ctx context.Context, tx *sql.Tx) ([]visualization.EdgeInput, error) {
	rows, err := tx.QueryContext(ctx, selectRelationships)
	if err != nil {
		return nil, errors.Wrap(err, "query relationships")
	}
	defer rows.Close()

	var rels []visualization.EdgeInput
	for rows.Next() {
		var e visualization.EdgeInput
		var intensity sql.NullString
		var pending sql.NullBool
		if err := rows.Scan(&e.ID, &e.Person1ID, &e.Person2ID, &intensity, &pending); err != nil {
			return nil, errors.Wrap(err, "scan relationship")
		}
		e.Intensity = visualization.Intensity(intensity.String)
		e.Pending = pending.Bool
		rels = append(rels, e)
	}
	return rels, errors.Wrap(rows.Err(), "iterate relationships")
}
