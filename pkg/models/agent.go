package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBType identifies a connectable backend dialect.
type DBType string

const (
	DBTypeSQLite        DBType = "sqlite"
	DBTypeMySQL         DBType = "mysql"
	DBTypePostgres      DBType = "postgresql"
	DBTypeSQLServer     DBType = "sqlserver"
	DBTypeElasticsearch DBType = "elasticsearch"
	DBTypeOpenSearch    DBType = "opensearch"
)

// IsSearchEngine reports whether the dialect speaks the search `_search` API
// rather than SQL.
func (t DBType) IsSearchEngine() bool {
	return t == DBTypeElasticsearch || t == DBTypeOpenSearch
}

// Valid reports whether t is one of the supported dialects.
func (t DBType) Valid() bool {
	switch t {
	case DBTypeSQLite, DBTypeMySQL, DBTypePostgres, DBTypeSQLServer,
		DBTypeElasticsearch, DBTypeOpenSearch:
		return true
	}
	return false
}

// DefaultPort returns the conventional port for the dialect, 0 for sqlite.
func (t DBType) DefaultPort() int {
	switch t {
	case DBTypeMySQL:
		return 3306
	case DBTypePostgres:
		return 5432
	case DBTypeSQLServer:
		return 1433
	case DBTypeElasticsearch, DBTypeOpenSearch:
		return 9200
	}
	return 0
}

// DatabaseSource is one connectable backend owned by an Agent.
// For sqlite the Database field holds the file path and Host/Port are unused.
type DatabaseSource struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DBType      DBType    `json:"db_type"`
	Host        string    `json:"host,omitempty"`
	Port        int       `json:"port,omitempty"`
	Database    string    `json:"database"`
	Username    string    `json:"username,omitempty"`
	Password    string    `json:"-"`
	IsDefault   bool      `json:"is_default"`
	Description string    `json:"description,omitempty"`
}

// EffectivePort returns the configured port, falling back to the dialect default.
func (s *DatabaseSource) EffectivePort() int {
	if s.Port > 0 {
		return s.Port
	}
	return s.DBType.DefaultPort()
}

// Validate checks the connection parameters required for the dialect.
func (s *DatabaseSource) Validate() error {
	if !s.DBType.Valid() {
		return fmt.Errorf("unsupported db_type %q", s.DBType)
	}
	if s.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if s.DBType != DBTypeSQLite && s.Host == "" {
		return fmt.Errorf("host is required for %s sources", s.DBType)
	}
	return nil
}

// Agent is the unit of tenancy: a bundle of database sources plus the
// semantic mappings scoped to them. The core only ever reads a materialized
// Agent; creation and editing happen in the external management store.
type Agent struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Databases   []*DatabaseSource `json:"databases"`
	AutoRoute   bool              `json:"auto_route"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DefaultDatabase returns the source marked default, falling back to the
// first declared source. Returns nil when the agent owns no sources.
func (a *Agent) DefaultDatabase() *DatabaseSource {
	for _, db := range a.Databases {
		if db.IsDefault {
			return db
		}
	}
	if len(a.Databases) > 0 {
		return a.Databases[0]
	}
	return nil
}

// DatabaseByID returns the owned source with the given id, or nil.
func (a *Agent) DatabaseByID(id uuid.UUID) *DatabaseSource {
	for _, db := range a.Databases {
		if db.ID == id {
			return db
		}
	}
	return nil
}

// DatabaseByName returns the owned source with the given display name
// (case-insensitive), or nil.
func (a *Agent) DatabaseByName(name string) *DatabaseSource {
	for _, db := range a.Databases {
		if strings.EqualFold(db.Name, name) {
			return db
		}
	}
	return nil
}
