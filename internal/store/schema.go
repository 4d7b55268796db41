package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	credentialsColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Unique: true},
		{Name: "value", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeInt64, Comment: "Unix seconds of the last write"},
	}

	// credentialsTable holds opaque client secrets such as the access token.
	credentialsTable = &schema.Table{
		Name:       "credentials",
		Columns:    credentialsColumns,
		PrimaryKey: []*schema.Column{credentialsColumns[0]},
	}

	tables = []*schema.Table{credentialsTable}
)

// migrate creates or upgrades every table the store owns.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
