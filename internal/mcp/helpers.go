package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"rc-stats/internal/app"
	"rc-stats/internal/event"
	"rc-stats/internal/stats"
)

// resolve turns the selection fields shared by most tools into a key set.
// A nil events list selects by date range, or everything without one.
func (s *Server) resolve(ctx context.Context, events []string, from, to string) (event.KeySet, error) {
	return s.app.Resolve(ctx, app.Selection{Events: events, From: from, To: to})
}

// session honours an explicit confidence level; zero means the configured one.
func (s *Server) session(level int) (*stats.Session, error) {
	if level == 0 {
		return s.app.Session(), nil
	}
	c := stats.ConfidenceLevel(level)
	if !c.Valid() {
		return nil, fmt.Errorf("unsupported confidence level %d (want 90, 95 or 99)", level)
	}
	return s.app.SessionAt(c), nil
}

// textResult returns a result whose only content is text.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// schemaWithEnums infers the input schema of T and restricts the named
// properties to the given values.
func schemaWithEnums[T any](enums map[string][]string) (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, err
	}
	for name, values := range enums {
		prop, ok := schema.Properties[name]
		if !ok {
			return nil, fmt.Errorf("schema has no property %q", name)
		}
		prop.Enum = make([]any, len(values))
		for i, v := range values {
			prop.Enum[i] = v
		}
	}
	return schema, nil
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
