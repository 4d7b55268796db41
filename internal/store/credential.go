package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// CredentialRepo persists opaque credential strings by key.
type CredentialRepo interface {
	// Get returns the stored value, or "" with ok=false if none exists.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type credentialRepo struct {
	drv *entsql.Driver
}

func (r *credentialRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *credentialRepo) Get(ctx context.Context, key string) (string, bool, error) {
	query, args := r.builder().
		Select("value").
		From(entsql.Table(credentialsTable.Name)).
		Where(entsql.EQ("key", key)).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return "", false, fmt.Errorf("get credential %q: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", false, fmt.Errorf("get credential %q: %w", key, err)
		}
		return "", false, nil
	}
	var value string
	if err := rows.Scan(&value); err != nil {
		return "", false, fmt.Errorf("get credential %q: %w", key, err)
	}
	return value, true, nil
}

func (r *credentialRepo) Put(ctx context.Context, key, value string) error {
	query, args := r.builder().
		Insert(credentialsTable.Name).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().Unix()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("put credential %q: %w", key, err)
	}
	return nil
}

func (r *credentialRepo) Delete(ctx context.Context, key string) error {
	query, args := r.builder().
		Delete(credentialsTable.Name).
		Where(entsql.EQ("key", key)).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete credential %q: %w", key, err)
	}
	return nil
}
