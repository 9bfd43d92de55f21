package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/formgate/formgate/internal/service"
)

// --------------------------------------------------------------------------
// Arguments
// --------------------------------------------------------------------------

func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

func optionalBool(request mcp.CallToolRequest, key string) bool {
	return request.GetBool(key, false)
}

func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

func optionalStringSlice(request mcp.CallToolRequest, key string) []string {
	return request.GetStringSlice(key, nil)
}

// clamp constrains val to [lo, hi].
func clamp(val, lo, hi int) int {
	return max(lo, min(val, hi))
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// marshalJSON renders data indented and leaves form HTML unescaped, so
// agents read the markup as written.
func marshalJSON(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := marshalJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError reports a failure to the agent without ending the session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// lookupError turns a form lookup failure into a tool result. Misses are
// reported verbatim; anything else is logged and replaced with a generic
// message.
func lookupError(logger *slog.Logger, idOrSlug string, err error) (*mcp.CallToolResult, error) {
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		return toolError("%s", nf.Error())
	}
	logger.Error("mcp form lookup failed", "id_or_slug", idOrSlug, "error", err)
	return toolError("failed to retrieve marketing form")
}
