// Package mysql provides the MySQL connector.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

func init() {
	connectors.Register(connectors.Registration{
		Info: connectors.AdapterInfo{
			Type:        models.DBTypeMySQL,
			DisplayName: "MySQL",
			Description: "MySQL 5.7+ / MariaDB",
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
	database string
	sourceID uuid.UUID
}

func newConnector(source *models.DatabaseSource) (*connector, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		source.Username, source.Password, source.Host, source.EffectivePort(), source.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	return &connector{db: db, database: source.Database, sourceID: source.ID}, nil
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
		SELECT table_name, column_name, data_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`, c.database)
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer rows.Close()

	meta := &models.SchemaMetadata{SourceID: c.sourceID}
	byName := map[string]int{}
	for rows.Next() {
		var tableName, columnName, dataType, isNullable, columnKey string
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &columnKey); err != nil {
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
			IsPrimary:  columnKey == "PRI",
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
