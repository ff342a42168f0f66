package server

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// toJSONContent renders any tool response as the single JSON text block
// the SDK expects, matching the teacher's formatters.go convention: the
// structured fields are consumed by the calling model directly, so no
// separate human-readable rendering is produced.
func toJSONContent(resp interface{}) []mcp.Content {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return []mcp.Content{&mcp.TextContent{Text: string(data)}}
}

func toolResult(resp interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: toJSONContent(resp)}
}
