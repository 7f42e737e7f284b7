package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/catalog"
	"github.com/rickey-cpu/AIQuery/pkg/config"
	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/examples"
	"github.com/rickey-cpu/AIQuery/pkg/handlers"
	"github.com/rickey-cpu/AIQuery/pkg/history"
	"github.com/rickey-cpu/AIQuery/pkg/intent"
	"github.com/rickey-cpu/AIQuery/pkg/llm"
	"github.com/rickey-cpu/AIQuery/pkg/middleware"
	"github.com/rickey-cpu/AIQuery/pkg/models"
	"github.com/rickey-cpu/AIQuery/pkg/pipeline"
	"github.com/rickey-cpu/AIQuery/pkg/router"
	"github.com/rickey-cpu/AIQuery/pkg/sqlcheck"
	"github.com/rickey-cpu/AIQuery/pkg/synth"

	// Compiled-in connector dialects.
	_ "github.com/rickey-cpu/AIQuery/pkg/connectors/elastic"
	_ "github.com/rickey-cpu/AIQuery/pkg/connectors/mssql"
	_ "github.com/rickey-cpu/AIQuery/pkg/connectors/mysql"
	_ "github.com/rickey-cpu/AIQuery/pkg/connectors/postgres"
	_ "github.com/rickey-cpu/AIQuery/pkg/connectors/sqlite"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Int("max_rows", cfg.Pipeline.MaxRows))

	client, err := newCompletionClient(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}

	schemas := catalog.NewSchemaCatalog(logger)
	layer := catalog.NewSemanticLayer(logger)
	index := examples.NewIndex(logger)
	agents := pipeline.NewMemoryAgentRegistry()
	factory := connectors.NewFactory()
	historyStore := history.NewMemoryStore()

	ctx := context.Background()
	bootstrap(ctx, cfg, client, schemas, layer, index, agents, factory, logger)

	supervisor := pipeline.New(pipeline.Deps{
		Agents:           agents,
		Classifier:       intent.NewClassifier(client, logger),
		Router:           router.New(schemas, layer, logger),
		Schemas:          schemas,
		Synth:            synth.New(client, index, layer, cfg.Pipeline.ExemplarK, logger),
		Validator:        sqlcheck.New(cfg.Pipeline.MaxRows, logger),
		Factory:          factory,
		History:          historyStore,
		ExecutionTimeout: cfg.Pipeline.ExecutionTimeout(),
		CacheTTL:         cfg.Pipeline.CacheTTL(),
		Logger:           logger,
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(supervisor, historyStore, factory, logger).RegisterRoutes(mux)
	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting aiquery",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newCompletionClient(cfg *config.Config, logger *zap.Logger) (llm.CompletionClient, error) {
	llmCfg := &llm.Config{
		Endpoint:       cfg.LLM.Endpoint,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		APIKey:         cfg.LLM.APIKey,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        cfg.LLM.Timeout(),
	}
	if cfg.LLM.Provider == "anthropic" {
		return llm.NewAnthropicClient(llmCfg, logger)
	}
	return llm.NewClient(llmCfg, logger)
}

// bootstrap loads agent, semantic, and exemplar seeds, then extracts the
// schema of every reachable source into the catalog. Seed and extraction
// failures are logged and skipped so one bad source cannot stop startup.
func bootstrap(
	ctx context.Context,
	cfg *config.Config,
	client llm.CompletionClient,
	schemas *catalog.SchemaCatalog,
	layer *catalog.SemanticLayer,
	index *examples.Index,
	agents *pipeline.MemoryAgentRegistry,
	factory connectors.Factory,
	logger *zap.Logger,
) {
	var agentIDs []uuid.UUID

	if cfg.AgentSeedPath != "" {
		if err := pipeline.LoadAgentsFile(cfg.AgentSeedPath, agents); err != nil {
			log.Fatalf("Failed to load agents file: %v", err)
		}
		agentIDs = agents.IDs()
	} else if cfg.Env == "local" {
		agentIDs = append(agentIDs, bootstrapDemoAgent(ctx, client, schemas, layer, index, agents, logger))
	}

	for _, agentID := range agentIDs {
		if cfg.SemanticSeedPath != "" {
			if err := catalog.LoadSeedFile(cfg.SemanticSeedPath, agentID, layer); err != nil {
				logger.Warn("semantic seed failed", zap.String("agent_id", agentID.String()), zap.Error(err))
			}
		}
	}
	if cfg.ExampleSeedPath != "" {
		if err := examples.LoadSeedFile(ctx, cfg.ExampleSeedPath, client, index); err != nil {
			logger.Warn("example seed failed", zap.Error(err))
		}
	}

	for _, agentID := range agentIDs {
		agent, err := agents.AgentByID(ctx, agentID)
		if err != nil {
			continue
		}
		for _, src := range agent.Databases {
			if _, err := schemas.Describe(src.ID); err == nil {
				continue
			}
			if err := extractSchema(ctx, factory, schemas, src); err != nil {
				logger.Warn("schema extraction failed",
					zap.String("source", src.Name),
					zap.String("db_type", string(src.DBType)),
					zap.Error(err))
			}
		}
	}
}

func extractSchema(ctx context.Context, factory connectors.Factory, schemas *catalog.SchemaCatalog, src *models.DatabaseSource) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	extractor, err := factory.NewSchemaExtractor(ctx, src)
	if err != nil {
		return err
	}
	defer extractor.Close()

	schema, err := extractor.Extract(ctx)
	if err != nil {
		return err
	}
	schemas.Publish(schema)
	return nil
}

// bootstrapDemoAgent wires the built-in e-commerce demo catalog so a local
// instance answers questions out of the box.
func bootstrapDemoAgent(
	ctx context.Context,
	client llm.CompletionClient,
	schemas *catalog.SchemaCatalog,
	layer *catalog.SemanticLayer,
	index *examples.Index,
	agents *pipeline.MemoryAgentRegistry,
	logger *zap.Logger,
) uuid.UUID {
	agentID := uuid.New()
	sourceID := uuid.New()

	agents.Register(&models.Agent{
		ID:   agentID,
		Name: "demo",
		Databases: []*models.DatabaseSource{
			{ID: sourceID, Name: "demo", DBType: models.DBTypeSQLite, Database: "demo.db", IsDefault: true},
		},
		IsActive: true,
	})
	schemas.Publish(catalog.DefaultSchema(sourceID))
	if err := catalog.ApplySeed(catalog.DefaultSeed(), agentID, layer); err != nil {
		logger.Warn("demo seed failed", zap.Error(err))
	}
	examples.SeedDefaults(ctx, client, index)

	logger.Info("demo agent registered",
		zap.String("agent_id", agentID.String()),
		zap.String("source_id", sourceID.String()))
	return agentID
}
