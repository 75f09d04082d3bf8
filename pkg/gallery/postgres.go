package gallery

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Store persists a gallery snapshot.
type Store interface {
	Save(ctx context.Context, g *Gallery) error
	Load(ctx context.Context) (*Gallery, error)
}

// Verify PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps enrolled descriptors in PostgreSQL so a fleet of
// controllers can share one enrolment.
type PostgresStore struct {
	conn *pgx.Conn
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &PostgresStore{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS enrolled_identities (
			name TEXT PRIMARY KEY,
			descriptor REAL[] NOT NULL,
			position INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

// Close terminates the database connection.
func (s *PostgresStore) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// Save upserts every entry of g. Identities already stored but absent from
// g are left untouched.
func (s *PostgresStore) Save(ctx context.Context, g *Gallery) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, e := range g.Entries() {
		batch.Queue(`
			INSERT INTO enrolled_identities (name, descriptor, position, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (name) DO UPDATE
			SET descriptor = EXCLUDED.descriptor, position = EXCLUDED.position, updated_at = NOW()
		`, e.Name, []float32(e.Descriptor), i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert identities: %w", err)
	}

	return tx.Commit(ctx)
}

// Load returns the stored gallery ordered by enrolment position.
func (s *PostgresStore) Load(ctx context.Context) (*Gallery, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT name, descriptor FROM enrolled_identities ORDER BY position, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	g := New()
	for rows.Next() {
		var (
			name string
			desc []float32
		)
		if err := rows.Scan(&name, &desc); err != nil {
			return nil, err
		}
		if len(desc) == 0 {
			continue
		}
		g.put(Entry{Name: name, Descriptor: desc})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes an identity. Deleting an unknown name is not an error.
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	_, err := s.conn.Exec(ctx, "DELETE FROM enrolled_identities WHERE name = $1", name)
	return err
}
