// Package server exposes the five reasoning tools (spec §4.5) over the
// Model Context Protocol: confer, planner, traced_reasoning,
// biased_reasoning, and illumination_status. Each tool is a scripted
// composition over the Session/Thread Manager, Metacognitive Monitor,
// Synthesis Engine, and Bias Verification Pipeline.
//
// Grounded on the teacher's internal/server/server.go (UnifiedServer,
// per-tool request/response structs with json tags, handler signature
// func(ctx, *mcp.CallToolRequest, In) (*mcp.CallToolResult, *Out, error))
// and internal/server/registry.go (ToolRegistry name->handler map,
// registered against ToolDefinitions via mcp.AddTool).
package server

import (
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reasoning-orchestrator/internal/bias"
	"reasoning-orchestrator/internal/knowledge"
	"reasoning-orchestrator/internal/llm"
	"reasoning-orchestrator/internal/monitor"
	"reasoning-orchestrator/internal/session"
	"reasoning-orchestrator/internal/storage"
	"reasoning-orchestrator/internal/synthesis"
)

// Server wires the four reasoning subsystems and the LLM Gateway behind
// the five tool handlers.
type Server struct {
	sessions  *session.Manager
	threads   *session.ThreadRegistry
	monitor   *monitor.Monitor
	synth     *synthesis.Engine
	bias      *bias.Pipeline
	gateway   llm.Client
	router    *llm.Router
	store     storage.Store
	stepIndex *knowledge.StepIndex       // optional, nil disables cross-step vector lookups
	mirror    *knowledge.SynthesisMirror // optional, nil disables the Neo4j mirror

	snapshotTokenBudget int
	circularWindow      int
}

// Config bundles the constructor dependencies that aren't themselves
// subsystem structs.
type Config struct {
	SnapshotTokenBudget int
	CircularWindow      int
}

// New builds a Server. stepIndex and mirror may be nil: both degrade
// silently per spec §6/§9 (absence never fails a tool call).
func New(sessions *session.Manager, threads *session.ThreadRegistry, mon *monitor.Monitor, synth *synthesis.Engine, biasPipeline *bias.Pipeline, gateway llm.Client, router *llm.Router, store storage.Store, stepIndex *knowledge.StepIndex, mirror *knowledge.SynthesisMirror, cfg Config) *Server {
	return &Server{
		sessions:            sessions,
		threads:             threads,
		monitor:             mon,
		synth:               synth,
		bias:                biasPipeline,
		gateway:             gateway,
		router:              router,
		store:               store,
		stepIndex:           stepIndex,
		mirror:              mirror,
		snapshotTokenBudget: cfg.SnapshotTokenBudget,
		circularWindow:      cfg.CircularWindow,
	}
}

// RegisterTools registers every reasoning tool against mcpServer,
// following the teacher's registry-then-AddTool loop: handlers are
// collected by name first so a missing definition/handler pairing logs
// a warning instead of panicking.
func (s *Server) RegisterTools(mcpServer *mcp.Server) {
	registry := map[string]interface{}{
		"confer":              s.handleConfer,
		"planner":             s.handlePlanner,
		"traced_reasoning":    s.handleTracedReasoning,
		"biased_reasoning":    s.handleBiasedReasoning,
		"illumination_status": s.handleIlluminationStatus,
	}

	for _, tool := range ToolDefinitions {
		handler, ok := registry[tool.Name]
		if !ok {
			log.Printf("[WARN] no handler registered for tool %s", tool.Name)
			continue
		}
		toolCopy := tool
		mcp.AddTool(mcpServer, &toolCopy, handler)
	}
}
