// Package graphdb persists property graphs in SQLite databases.
package graphdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
)

const (
	driverName = "sqlite3"
	dirPerm    = 0o750
)

// File extensions treated as graph databases.
var extensions = []string{".db", ".sqlite", ".sqlite3"}

// IsDatabasePath reports whether path names a graph database file.
func IsDatabasePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}

	return false
}

// Rows keep the graph's insertion order in seq; ids are not unique because
// a graph may hold duplicate ids.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		seq INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		label TEXT NOT NULL,
		type TEXT NOT NULL,
		properties TEXT,
		origin TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		seq INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		label TEXT NOT NULL,
		properties TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_id ON nodes(id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target)`,
}

// Store is an open graph database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	err := os.MkdirAll(filepath.Dir(path), dirPerm)
	if err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	for _, q := range schema {
		_, err = db.ExecContext(ctx, q)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("init schema: %w", err), db.Close())
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored graph with g in one transaction.
func (s *Store) Save(ctx context.Context, g *graph.CodeGraph) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	for _, table := range []string{"nodes", "edges"} {
		_, err = tx.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, n := range g.Nodes() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO nodes (seq, id, label, type, properties, origin) VALUES (?, ?, ?, ?, ?, ?)`,
			i, n.ID, n.Label, n.Type, encodeProps(n.Properties), n.Origin)
		if err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}

	for i, e := range g.Edges() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO edges (seq, id, source, target, label, properties) VALUES (?, ?, ?, ?, ?, ?)`,
			i, e.ID, e.Source, e.Target, e.Label, encodeProps(e.Properties))
		if err != nil {
			return fmt.Errorf("insert edge %s: %w", e.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Load reads the stored graph in its original insertion order.
func (s *Store) Load(ctx context.Context) (*graph.CodeGraph, error) {
	g := graph.New()

	err := s.loadNodes(ctx, g)
	if err != nil {
		return nil, err
	}

	err = s.loadEdges(ctx, g)
	if err != nil {
		return nil, err
	}

	return g, nil
}

func (s *Store) loadNodes(ctx context.Context, g *graph.CodeGraph) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, type, properties, origin FROM nodes ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n             graph.Node
			props, origin sql.NullString
		)

		err = rows.Scan(&n.ID, &n.Label, &n.Type, &props, &origin)
		if err != nil {
			return fmt.Errorf("scan node: %w", err)
		}

		n.Properties, err = decodeProps(props)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}

		n.Origin = origin.String
		g.AddNode(&n)
	}

	return rows.Err()
}

func (s *Store) loadEdges(ctx context.Context, g *graph.CodeGraph) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, target, label, properties FROM edges ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e     graph.Edge
			props sql.NullString
		)

		err = rows.Scan(&e.ID, &e.Source, &e.Target, &e.Label, &props)
		if err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}

		e.Properties, err = decodeProps(props)
		if err != nil {
			return fmt.Errorf("edge %s: %w", e.ID, err)
		}

		g.AddEdge(&e)
	}

	return rows.Err()
}

func encodeProps(props map[string]string) sql.NullString {
	if len(props) == 0 {
		return sql.NullString{}
	}

	data, err := json.Marshal(props)
	if err != nil {
		return sql.NullString{}
	}

	return sql.NullString{String: string(data), Valid: true}
}

func decodeProps(raw sql.NullString) (map[string]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var props map[string]string

	err := json.Unmarshal([]byte(raw.String), &props)
	if err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}

	return props, nil
}

// SaveFile writes g to the database at path, replacing its contents.
func SaveFile(ctx context.Context, path string, g *graph.CodeGraph) error {
	s, err := Open(ctx, path)
	if err != nil {
		return err
	}

	return errors.Join(s.Save(ctx, g), s.Close())
}

// LoadFile reads the graph stored at path. The file must exist.
func LoadFile(ctx context.Context, path string) (*graph.CodeGraph, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open graph database: %w", err)
	}

	s, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}

	g, err := s.Load(ctx)

	return g, errors.Join(err, s.Close())
}
