package pipeline

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rickey-cpu/AIQuery/pkg/models"
)

type agentSeed struct {
	Agents []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		AutoRoute bool   `yaml:"auto_route"`
		Databases []struct {
			ID          string `yaml:"id"`
			Name        string `yaml:"name"`
			DBType      string `yaml:"db_type"`
			Host        string `yaml:"host"`
			Port        int    `yaml:"port"`
			Database    string `yaml:"database"`
			Username    string `yaml:"username"`
			PasswordEnv string `yaml:"password_env"`
			IsDefault   bool   `yaml:"is_default"`
			Description string `yaml:"description"`
		} `yaml:"databases"`
	} `yaml:"agents"`
}

// LoadAgentsFile registers agents from a YAML file. Database passwords are
// never read from the file itself; each source names the environment
// variable that holds its password.
func LoadAgentsFile(path string, reg *MemoryAgentRegistry) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read agents file: %w", err)
	}

	var seed agentSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse agents file: %w", err)
	}

	for _, a := range seed.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent without a name in %s", path)
		}
		agentID, err := parseOrNewID(a.ID)
		if err != nil {
			return fmt.Errorf("agent %q: %w", a.Name, err)
		}

		agent := &models.Agent{
			ID:        agentID,
			Name:      a.Name,
			AutoRoute: a.AutoRoute,
			IsActive:  true,
		}
		for _, d := range a.Databases {
			sourceID, err := parseOrNewID(d.ID)
			if err != nil {
				return fmt.Errorf("agent %q source %q: %w", a.Name, d.Name, err)
			}
			src := &models.DatabaseSource{
				ID:          sourceID,
				Name:        d.Name,
				DBType:      models.DBType(d.DBType),
				Host:        d.Host,
				Port:        d.Port,
				Database:    d.Database,
				Username:    d.Username,
				IsDefault:   d.IsDefault,
				Description: d.Description,
			}
			if d.PasswordEnv != "" {
				src.Password = os.Getenv(d.PasswordEnv)
			}
			if err := src.Validate(); err != nil {
				return fmt.Errorf("agent %q source %q: %w", a.Name, d.Name, err)
			}
			agent.Databases = append(agent.Databases, src)
		}
		reg.Register(agent)
	}
	return nil
}

func parseOrNewID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}
