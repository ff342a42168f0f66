// Package server - tool definitions for the reasoning orchestration
// server. Separated from the handlers for the same reason the teacher's
// tools.go is: definitions are data, handlers are behavior.
package server

import "github.com/modelcontextprotocol/go-sdk/mcp"

// ToolDefinitions lists every MCP tool this server exposes (spec §6).
// InputSchema is left unset for all five: the SDK derives it from each
// handler's argument struct's json tags, the way the teacher's "think"
// and "history" tools do.
var ToolDefinitions = []mcp.Tool{
	{
		Name: "confer",
		Description: `Threaded chat with a single model call per turn.

On first invocation without continuation_id, creates a new thread and returns its id.
On later invocations with continuation_id, reconstructs prior turns up to the model's
context budget and appends a new turn. No monitor or synthesis tracking.

Example: {"message": "Outline a cache design"}`,
	},
	{
		Name: "planner",
		Description: `Stepwise plan construction with branching and revision support.

For total_steps >= 5, steps 1-3 return status "pause_for_deep_thinking" instead of
calling the model; invoke again with the same arguments plus the returned
continuation_id to proceed (a call without continuation_id always starts a new
session, which pauses again). Use is_revision/
revises_step to correct an earlier step, or branch_from_step/branch_id to fork a
sibling chain. The circular-reasoning monitor is active.

Example: {"step_text": "Build a key-value store", "step_number": 1, "total_steps": 5, "next_step_required": true}`,
	},
	{
		Name: "traced_reasoning",
		Description: `Iterative, monitored single-model reasoning over thoughts 1..N.

Thought 1 records the original query. Each later call generates a thought from the
primary model, runs the Metacognitive Monitor, updates the Synthesis Engine, and
returns the thought plus any interventions. Supports is_revision/revises_thought,
branch_from_thought, and needs_more_thoughts to extend N mid-session.

Example: {"thought": "Elaborate on eviction", "thought_number": 1, "total_thoughts": 3, "next_thought_needed": true}`,
	},
	{
		Name: "biased_reasoning",
		Description: `Primary-plus-verifier bias detection loop, for up to max_analysis_rounds rounds.

Each round: a primary model produces a step, a verifier classifies cognitive bias,
and a correction pass runs when warranted. After acceptance, requests a final
synthesis pass that may set ready_for_decision.

Example: {"query": "Should a 5-person startup adopt microservices?"}`,
	},
	{
		Name: "illumination_status",
		Description: `Read-only diagnostic: the Monitor's recent events, the current Synthesis
snapshot, and aggregate session metrics for a given session_id.

Example: {"session_id": "sess_..."}`,
	},
}
