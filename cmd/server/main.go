// Package main provides the entry point for the reasoning orchestration
// MCP server.
//
// This server is designed to be spawned as a child process by an MCP
// client and communicates via stdio using the Model Context Protocol. It
// should not be run manually by users.
//
// Environment variables:
//   - DEBUG: set to "true" to enable debug logging
//   - RO_*: server configuration, see internal/config
//   - ANTHROPIC_API_KEY: required unless RO_MODELS_MOCK=true
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reasoning-orchestrator/internal/bias"
	"reasoning-orchestrator/internal/config"
	"reasoning-orchestrator/internal/embeddings"
	"reasoning-orchestrator/internal/knowledge"
	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/monitor"
	"reasoning-orchestrator/internal/server"
	"reasoning-orchestrator/internal/session"
	"reasoning-orchestrator/internal/similarity"
	"reasoning-orchestrator/internal/storage"
	"reasoning-orchestrator/internal/synthesis"
	"reasoning-orchestrator/internal/types"
)

func main() {
	if os.Getenv("DEBUG") == "true" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("starting reasoning orchestrator in debug mode...")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("RO_MODELS_MOCK") != "true" {
		log.Fatal("ANTHROPIC_API_KEY is not set (set RO_MODELS_MOCK=true to run against a stub model for local testing)")
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	defer func() {
		if err := storage.Close(store); err != nil {
			log.Printf("warning: failed to close storage: %v", err)
		}
	}()
	log.Printf("initialized %s store", cfg.Storage.Type)

	router := llm.NewRouter(cfg.Models.DefaultChat, cfg.Models.DefaultReasoning, cfg.Models.DefaultVerifier, cfg.Models.ReasoningModels)

	var gateway llm.Client
	if os.Getenv("RO_MODELS_MOCK") == "true" {
		gateway = llm.NewMockClient()
		log.Println("using mock model gateway (RO_MODELS_MOCK=true)")
	} else {
		anthropic := llm.NewAnthropicGateway("", router, cfg.Models.CallTimeout, cfg.Models.ExtendedCallTimeout)
		gateway = llm.NewRetryingClient(anthropic, cfg.Models.MaxRetryAttempts, cfg.Models.RetryBaseBackoff)
	}

	newMonitorState := func() *types.MonitorState { return &types.MonitorState{} }
	sessions := session.NewManager(store, cfg.Storage.SessionTTL, cfg.Performance.MaxConcurrentSessions, newMonitorState)
	threads := session.NewThreadRegistry(store)

	simProvider := buildSimilarityProvider()
	mon := monitor.New(cfg.Monitor, simProvider)
	synth := synthesis.New(cfg.Bias)
	biasPipeline := bias.New(gateway, router, cfg.Bias)
	log.Println("initialized session manager, monitor, synthesis engine, and bias pipeline")

	stepIndex := buildStepIndex()
	mirror := buildSynthesisMirror()

	srv := server.New(sessions, threads, mon, synth, biasPipeline, gateway, router, store, stepIndex, mirror, server.Config{
		SnapshotTokenBudget: cfg.Performance.SnapshotTokenBudget,
		CircularWindow:      cfg.Monitor.CircularWindow,
	})
	log.Println("created reasoning orchestration server")

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	log.Println("created MCP server")

	srv.RegisterTools(mcpServer)
	log.Println("registered tools: confer, planner, traced_reasoning, biased_reasoning, illumination_status")

	go evictionLoop(sessions)

	transport := &mcp.StdioTransport{}
	log.Println("starting MCP server over stdio...")
	if err := mcpServer.Run(context.Background(), transport); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// buildSimilarityProvider wires the embedding-backed provider over the
// Jaccard default when embeddings are enabled (spec §9's open question:
// any monotone similarity is acceptable; an embedding model is never
// assumed present).
func buildSimilarityProvider() similarity.Provider {
	embCfg := embeddings.ConfigFromEnv()
	if !embCfg.Enabled {
		return similarity.NewJaccardProvider(3)
	}

	var embedder embeddings.Embedder
	switch embCfg.Provider {
	case "voyage":
		embedder = embeddings.NewVoyageEmbedder(embCfg.APIKey, embCfg.Model)
	default:
		log.Printf("unknown embedding provider %q, falling back to jaccard similarity", embCfg.Provider)
		return similarity.NewJaccardProvider(3)
	}

	return similarity.NewEmbeddingProvider(context.Background(), embedder)
}

// buildStepIndex opens the optional chromem-go cross-step vector index.
// A construction failure degrades to nil: the Monitor falls back to the
// configured similarity.Provider directly (spec §6's "absence degrades
// silently").
func buildStepIndex() *knowledge.StepIndex {
	embCfg := embeddings.ConfigFromEnv()
	var embedder embeddings.Embedder
	if embCfg.Enabled && embCfg.Provider == "voyage" {
		embedder = embeddings.NewVoyageEmbedder(embCfg.APIKey, embCfg.Model)
	}

	idx, err := knowledge.NewStepIndex(knowledge.StepIndexConfig{
		PersistPath: os.Getenv("RO_STEP_INDEX_PATH"),
		Embedder:    embedder,
	})
	if err != nil {
		log.Printf("warning: step index unavailable: %v", err)
		return nil
	}
	return idx
}

// buildSynthesisMirror dials the optional Neo4j mirror. A missing or
// unreachable database is not an error: it simply means insights are
// never mirrored cross-session (spec §9: "nothing in the reasoning
// pipeline requires this client").
func buildSynthesisMirror() *knowledge.SynthesisMirror {
	if os.Getenv("RO_NEO4J_ENABLED") != "true" {
		return knowledge.NewSynthesisMirror(nil)
	}
	client, err := knowledge.NewNeo4jClient(knowledge.DefaultNeo4jConfig())
	if err != nil {
		log.Printf("warning: neo4j mirror unavailable: %v", err)
		return knowledge.NewSynthesisMirror(nil)
	}
	return knowledge.NewSynthesisMirror(client)
}

// evictionLoop periodically removes sessions past their TTL (spec
// §4.1's evict_expired), independent of any tool invocation.
func evictionLoop(sessions *session.Manager) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if evicted := sessions.EvictExpired(); len(evicted) > 0 {
			log.Printf("evicted %d expired session(s)", len(evicted))
		}
	}
}
