// Package postgres provides the PostgreSQL connector on top of pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

func init() {
	connectors.Register(connectors.Registration{
		Info: connectors.AdapterInfo{
			Type:        models.DBTypePostgres,
			DisplayName: "PostgreSQL",
			Description: "PostgreSQL 12+",
		},
		ExecutorFactory: func(ctx context.Context, source *models.DatabaseSource) (connectors.QueryExecutor, error) {
			return newConnector(source)
		},
		SchemaFactory: func(ctx context.Context, source *models.DatabaseSource) (connectors.SchemaExtractor, error) {
			return newConnector(source)
		},
	})
}

type connector struct {
	db       *sql.DB
	sourceID uuid.UUID
}

func newConnector(source *models.DatabaseSource) (*connector, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=prefer",
		url.QueryEscape(source.Username), url.QueryEscape(source.Password),
		source.Host, source.EffectivePort(), source.Database)
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	return &connector{db: db, sourceID: source.ID}, nil
}

func (c *connector) Query(ctx context.Context, query string, limit int) (*connectors.QueryExecutionResult, error) {
	limit = connectors.ClampLimit(limit)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer rows.Close()

	return connectors.ScanRows(ctx, rows, limit)
}

func (c *connector) TestConnection(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return connectors.WrapDriverError(ctx, err)
	}
	return nil
}

func (c *connector) Extract(ctx context.Context) (*models.SchemaMetadata, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT c.table_name, c.column_name, c.data_type, c.is_nullable,
		       EXISTS (
		         SELECT 1
		         FROM information_schema.table_constraints tc
		         JOIN information_schema.key_column_usage kcu
		           ON kcu.constraint_name = tc.constraint_name
		          AND kcu.table_schema = tc.table_schema
		         WHERE tc.constraint_type = 'PRIMARY KEY'
		           AND tc.table_name = c.table_name
		           AND kcu.column_name = c.column_name
		       ) AS is_primary
		FROM information_schema.columns c
		WHERE c.table_schema = 'public'
		ORDER BY c.table_name, c.ordinal_position`)
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer rows.Close()

	meta := &models.SchemaMetadata{SourceID: c.sourceID}
	byName := map[string]int{}
	for rows.Next() {
		var (
			tableName, columnName, dataType, isNullable string
			isPrimary                                   bool
		)
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &isPrimary); err != nil {
			return nil, connectors.WrapDriverError(ctx, err)
		}
		idx, ok := byName[tableName]
		if !ok {
			idx = len(meta.Tables)
			byName[tableName] = idx
			meta.Tables = append(meta.Tables, models.Table{Name: tableName})
		}
		meta.Tables[idx].Columns = append(meta.Tables[idx].Columns, models.Column{
			Name:       columnName,
			DataType:   dataType,
			IsNullable: isNullable == "YES",
			IsPrimary:  isPrimary,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	return meta, nil
}

func (c *connector) Close() error {
	return c.db.Close()
}

var (
	_ connectors.QueryExecutor   = (*connector)(nil)
	_ connectors.SchemaExtractor = (*connector)(nil)
)
