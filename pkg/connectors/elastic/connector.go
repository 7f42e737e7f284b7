// Package elastic provides the connector for Elasticsearch and OpenSearch
// sources. Both speak the same _search and _mapping surface, so one client
// serves both dialects. Queries are JSON _search bodies; results come back
// in the shared tabular shape with flattened documents as rows.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

func init() {
	for _, info := range []connectors.AdapterInfo{
		{Type: models.DBTypeElasticsearch, DisplayName: "Elasticsearch", Description: "Elasticsearch 7+/8+"},
		{Type: models.DBTypeOpenSearch, DisplayName: "OpenSearch", Description: "OpenSearch 1+/2+"},
	} {
		connectors.Register(connectors.Registration{
			Info: info,
			ExecutorFactory: func(ctx context.Context, source *models.DatabaseSource) (connectors.QueryExecutor, error) {
				return newConnector(source)
			},
			SchemaFactory: func(ctx context.Context, source *models.DatabaseSource) (connectors.SchemaExtractor, error) {
				return newConnector(source)
			},
		})
	}
}

type connector struct {
	client   *elasticsearch.Client
	index    string
	sourceID uuid.UUID
}

func newConnector(source *models.DatabaseSource) (*connector, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{fmt.Sprintf("http://%s:%d", source.Host, source.EffectivePort())},
		Username:  source.Username,
		Password:  source.Password,
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}
	return &connector{client: client, index: source.Database, sourceID: source.ID}, nil
}

// Query runs a _search request. The query argument is the JSON body
// produced by synthesis and validated upstream.
func (c *connector) Query(ctx context.Context, query string, limit int) (*connectors.QueryExecutionResult, error) {
	limit = connectors.ClampLimit(limit)

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(strings.NewReader(query)),
	)
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, connectors.WrapDriverError(ctx, fmt.Errorf("search failed: %s: %s", res.Status(), msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}

	return flattenHits(parsed.Hits.Hits, limit), nil
}

type searchHit struct {
	ID     string         `json:"_id"`
	Source map[string]any `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

func flattenHits(hits []searchHit, limit int) *connectors.QueryExecutionResult {
	fieldSet := map[string]struct{}{}
	rows := make([]map[string]any, 0, len(hits))

	for _, hit := range hits {
		if len(rows) >= limit {
			break
		}
		row := map[string]any{"_id": hit.ID}
		flattenInto(row, "", hit.Source)
		for field := range row {
			fieldSet[field] = struct{}{}
		}
		rows = append(rows, row)
	}

	fields := make([]string, 0, len(fieldSet))
	for field := range fieldSet {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	columns := make([]connectors.ColumnInfo, len(fields))
	for i, field := range fields {
		columns[i] = connectors.ColumnInfo{Name: field, Type: "keyword"}
	}
	return &connectors.QueryExecutionResult{Columns: columns, Rows: rows, RowCount: len(rows)}
}

// flattenInto writes nested document fields using dot paths, matching how
// field names appear in the index mapping.
func flattenInto(row map[string]any, prefix string, doc map[string]any) {
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(row, path, nested)
			continue
		}
		row[path] = value
	}
}

func (c *connector) TestConnection(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return connectors.WrapDriverError(ctx, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return connectors.WrapDriverError(ctx, fmt.Errorf("ping failed: %s", res.Status()))
	}
	return nil
}

// Extract reads the index mapping and presents it as a single-table schema,
// each mapped field becoming a column.
func (c *connector) Extract(ctx context.Context) (*models.SchemaMetadata, error) {
	res, err := c.client.Indices.GetMapping(
		c.client.Indices.GetMapping.WithContext(ctx),
		c.client.Indices.GetMapping.WithIndex(c.index),
	)
	if err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, connectors.WrapDriverError(ctx, fmt.Errorf("get mapping failed: %s: %s", res.Status(), msg))
	}

	var parsed map[string]struct {
		Mappings struct {
			Properties map[string]any `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, connectors.WrapDriverError(ctx, err)
	}

	table := models.Table{Name: c.index, Description: "Search index"}
	for _, indexMapping := range parsed {
		collectFields(&table, "", indexMapping.Mappings.Properties)
	}
	sort.Slice(table.Columns, func(i, j int) bool {
		return table.Columns[i].Name < table.Columns[j].Name
	})

	return &models.SchemaMetadata{SourceID: c.sourceID, Tables: []models.Table{table}}, nil
}

func collectFields(table *models.Table, prefix string, properties map[string]any) {
	for name, raw := range properties {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if nested, ok := prop["properties"].(map[string]any); ok {
			collectFields(table, path, nested)
			continue
		}
		fieldType, _ := prop["type"].(string)
		if fieldType == "" {
			fieldType = "object"
		}
		table.Columns = append(table.Columns, models.Column{
			Name:     path,
			DataType: fieldType,
		})
	}
}

func (c *connector) Close() error {
	return nil
}

var (
	_ connectors.QueryExecutor   = (*connector)(nil)
	_ connectors.SchemaExtractor = (*connector)(nil)
)
