// Package mssql provides the SQL Server connector.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

func init() {
	connectors.Register(connectors.Registration{
		Info: connectors.AdapterInfo{
			Type:        models.DBTypeSQLServer,
			DisplayName: "Microsoft SQL Server",
			Description: "SQL Server 2017+ / Azure SQL",
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
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(source.Username, source.Password),
		Host:     fmt.Sprintf("%s:%d", source.Host, source.EffectivePort()),
		RawQuery: url.Values{"database": {source.Database}}.Encode(),
	}
	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
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
		SELECT c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE,
		       CASE WHEN kcu.COLUMN_NAME IS NULL THEN 0 ELSE 1 END AS is_primary
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		  ON kcu.TABLE_NAME = c.TABLE_NAME
		 AND kcu.COLUMN_NAME = c.COLUMN_NAME
		 AND OBJECTPROPERTY(OBJECT_ID(kcu.CONSTRAINT_SCHEMA + '.' + kcu.CONSTRAINT_NAME), 'IsPrimaryKey') = 1
		WHERE c.TABLE_SCHEMA = 'dbo'
		ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`)
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer rows.Close()

	meta := &models.SchemaMetadata{SourceID: c.sourceID}
	byName := map[string]int{}
	for rows.Next() {
		var (
			tableName, columnName, dataType, isNullable string
			isPrimary                                   int
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
			IsPrimary:  isPrimary == 1,
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
