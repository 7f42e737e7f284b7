// Package sqlite provides the file-backed SQLite connector. The source's
// Database field holds the file path; Host and Port are unused.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

func init() {
	connectors.Register(connectors.Registration{
		Info: connectors.AdapterInfo{
			Type:        models.DBTypeSQLite,
			DisplayName: "SQLite",
			Description: "File-backed SQLite database",
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
	db, err := sql.Open("sqlite", source.Database)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
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
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, connectors.WrapDriverError(ctx, err)
		}
		tableNames = append(tableNames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}

	meta := &models.SchemaMetadata{SourceID: c.sourceID}
	for _, name := range tableNames {
		table, err := c.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		meta.Tables = append(meta.Tables, *table)
	}
	return meta, nil
}

func (c *connector) describeTable(ctx context.Context, name string) (*models.Table, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer rows.Close()

	table := &models.Table{Name: name}
	for rows.Next() {
		var (
			cid      int
			colName  string
			colType  string
			notNull  int
			dflt     sql.NullString
			pkIndex  int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pkIndex); err != nil {
			return nil, connectors.WrapDriverError(ctx, err)
		}
		table.Columns = append(table.Columns, models.Column{
			Name:       colName,
			DataType:   colType,
			IsNullable: notNull == 0,
			IsPrimary:  pkIndex > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	return table, nil
}

func (c *connector) Close() error {
	return c.db.Close()
}

var (
	_ connectors.QueryExecutor   = (*connector)(nil)
	_ connectors.SchemaExtractor = (*connector)(nil)
)
