package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// ErrEmptyName is returned when registering a blank user name.
var ErrEmptyName = errors.New("user name is required")

type userRepo struct {
	store *Store
}

func (r *userRepo) Register(ctx context.Context, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	u := &User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	ins := r.store.builder().Insert(tableUsers).
		Columns("id", "name", "created_at").
		Values(u.ID, u.Name, u.CreatedAt.UnixMilli())
	if err := exec(ctx, r.store.db, ins); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*User, error) {
	b := r.store.builder()
	query, args := b.Select("id", "name", "created_at").
		From(b.Table(tableUsers)).
		Where(entsql.EQ("id", id)).
		Query()

	var u User
	var created int64
	err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return &u, nil
}
