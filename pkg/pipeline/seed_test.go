package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickey-cpu/AIQuery/pkg/models"
)

func TestLoadAgentsFile(t *testing.T) {
	t.Setenv("TEST_SALES_DB_PASSWORD", "s3cret")

	content := `
agents:
  - id: "6f1b24a4-8c1e-4ee4-9a3d-111111111111"
    name: "sales-assistant"
    auto_route: true
    databases:
      - name: "sales"
        db_type: "postgresql"
        host: "db.internal"
        database: "sales"
        username: "reader"
        password_env: "TEST_SALES_DB_PASSWORD"
        is_default: true
      - name: "archive"
        db_type: "sqlite"
        database: "archive.db"
`
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg := NewMemoryAgentRegistry()
	require.NoError(t, LoadAgentsFile(path, reg))

	ids := reg.IDs()
	require.Len(t, ids, 1)

	agent, err := reg.AgentByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "sales-assistant", agent.Name)
	assert.True(t, agent.AutoRoute)
	require.Len(t, agent.Databases, 2)

	sales := agent.DatabaseByName("sales")
	require.NotNil(t, sales)
	assert.Equal(t, models.DBTypePostgres, sales.DBType)
	assert.Equal(t, "s3cret", sales.Password)
	assert.True(t, sales.IsDefault)

	archive := agent.DatabaseByName("archive")
	require.NotNil(t, archive)
	assert.NotEqual(t, sales.ID, archive.ID)
}

func TestLoadAgentsFile_InvalidSource(t *testing.T) {
	content := `
agents:
  - name: "broken"
    databases:
      - name: "no-host"
        db_type: "mysql"
        database: "sales"
`
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg := NewMemoryAgentRegistry()
	err := LoadAgentsFile(path, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
}
