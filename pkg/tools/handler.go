package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

func newHandler(name string, def *widget.Definition, renderer Renderer, logger *slog.Logger) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		callID := uuid.NewString()
		log := logger.With("tool", name, "call_id", callID)

		defer func() {
			if rec := recover(); rec != nil {
				log.Error("widget tool panicked", "panic", rec)
				result, err = errorResult(fmt.Errorf("widget %q failed unexpectedly", def.Name())), nil
			}
		}()

		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}
		args, err := DecodeArguments(raw)
		if err != nil {
			log.Info("rejected widget tool arguments", "error", err)
			return errorResult(err), nil
		}

		tree, err := renderer.Render(ctx, def, args)
		if err != nil {
			var validationErr *widget.ValidationError
			if errors.As(err, &validationErr) {
				log.Info("widget tool arguments failed validation", "fields", validationErr.Fields())
			} else {
				log.Error("widget tool render failed", "error", err)
			}
			return errorResult(err), nil
		}

		payload, err := json.Marshal(tree)
		if err != nil {
			log.Error("widget tool encode failed", "error", err)
			return errorResult(err), nil
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(payload)}},
			StructuredContent: tree.Map(),
		}, nil
	}
}

// DecodeArguments decodes raw tool arguments into a map. Numbers are kept as
// json.Number so integer inputs never lose precision before validation. An
// absent or null payload is an empty argument set.
func DecodeArguments(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var args map[string]any
	if err := decoder.Decode(&args); err != nil {
		return nil, fmt.Errorf("tools: arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
