// Package postgres is the PostgreSQL-backed EntityStore. Entities persist
// as one jsonb document per record in a single kind-partitioned table, so
// the store stays generic over entity kinds.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
)

// Store implements storage.EntityStore over a sqlx database handle.
type Store struct {
	db *sqlx.DB
}

var _ storage.EntityStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database and ensures the schema exists.
func Open(url string) (*Store, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return New(db), nil
}

func (s *Store) FindByCriteria(ctx context.Context, kind string, criteria storage.Criteria) ([]entity.Entity, error) {
	query := `SELECT doc FROM app_entities WHERE kind = $1`
	args := []interface{}{kind}
	for name, value := range criteria {
		if name == "id" {
			query += fmt.Sprintf(" AND id = $%d", len(args)+1)
		} else {
			query += fmt.Sprintf(" AND doc->>'%s' = $%d", docKey(name), len(args)+1)
		}
		args = append(args, fmt.Sprintf("%v", value))
	}
	query += ` ORDER BY created_at`
	return s.query(ctx, kind, query, args...)
}

func (s *Store) FindAll(ctx context.Context, kind string) ([]entity.Entity, error) {
	return s.query(ctx, kind, `SELECT doc FROM app_entities WHERE kind = $1 ORDER BY created_at`, kind)
}

func (s *Store) Save(ctx context.Context, e entity.Entity) error {
	id := e.EntityID()
	if id == "" {
		return fmt.Errorf("save %s: id is required", e.EntityKind())
	}
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("save %s: %w", e.EntityKind(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_entities (kind, id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (kind, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, e.EntityKind(), id, doc)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("save %s/%s: %w", e.EntityKind(), id, storage.ErrDuplicate)
		}
		return fmt.Errorf("save %s/%s: %w", e.EntityKind(), id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, e entity.Entity) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM app_entities WHERE kind = $1 AND id = $2`,
		e.EntityKind(), e.EntityID())
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", e.EntityKind(), e.EntityID(), err)
	}
	return nil
}

// Flush is a no-op: every save is committed immediately.
func (s *Store) Flush(context.Context) error { return nil }

func (s *Store) query(ctx context.Context, kind, query string, args ...interface{}) ([]entity.Entity, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []entity.Entity
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		e, err := model.Decode(kind, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// docKey translates a request-style attribute name ("creatorId") into the
// persisted document key ("creator_id").
func docKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
