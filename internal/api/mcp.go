package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/giftgenius/internal/gateway"
	"github.com/kalambet/giftgenius/internal/profile"
	"github.com/kalambet/giftgenius/internal/session"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Generator session.Generator
	Version   string
}

// NewMCPServer creates an MCP server exposing gift generation as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"giftgenius",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("giftgenius proposes gift ideas and interest tags for a recipient profile."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_gifts",
			mcp.WithDescription("Generate a batch of gift ideas for a recipient profile."),
			mcp.WithObject("profile", mcp.Description("Recipient profile, same shape as the HTTP API"), mcp.Required()),
			mcp.WithArray("exclude", mcp.Description("Titles already suggested, never proposed again")),
			mcp.WithString("model", mcp.Description("Model id from list_models; default model when omitted")),
		),
		mcpGenerateGifts(deps),
	)

	s.AddTool(
		mcp.NewTool("suggest_tags",
			mcp.WithDescription("Suggest interests adjacent to the current ones."),
			mcp.WithArray("current_tags", mcp.Description("Interests the recipient already has")),
			mcp.WithObject("sliders", mcp.Description("Psychology sliders keyed by name, each 0-100")),
			mcp.WithArray("ignored", mcp.Description("Suggestions the user already declined")),
			mcp.WithString("model", mcp.Description("Model id from list_models; default model when omitted")),
		),
		mcpSuggestTags(deps),
	)

	s.AddTool(
		mcp.NewTool("list_models",
			mcp.WithDescription("List the selectable models and the default one."),
		),
		mcpListModels(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"models://registry",
			"Model Registry",
			mcp.WithResourceDescription("Selectable models as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceModels(deps),
	)

	return s
}

func mcpGenerateGifts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p profile.Profile
		ok, err := decodeArg(req, "profile", &p)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid profile: %v", err)), nil
		}
		if !ok {
			return mcpError("profile is required"), nil
		}

		res, err := deps.Generator.GenerateGifts(ctx, gateway.GiftRequest{
			Profile:          p,
			AlreadySuggested: req.GetStringSlice("exclude", nil),
			Model:            req.GetString("model", ""),
		})
		if err != nil {
			return mcpFailure(err), nil
		}
		return mcpJSON(generateGiftsResponse{GiftIdeas: res.Ideas})
	}
}

func mcpSuggestTags(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var sliders map[string]int
		if _, err := decodeArg(req, "sliders", &sliders); err != nil {
			return mcpError(fmt.Sprintf("invalid sliders: %v", err)), nil
		}

		res, err := deps.Generator.SuggestTags(ctx, gateway.TagRequest{
			CurrentTags: req.GetStringSlice("current_tags", nil),
			Sliders:     sliders,
			Ignored:     req.GetStringSlice("ignored", nil),
			Model:       req.GetString("model", ""),
		})
		if err != nil {
			return mcpFailure(err), nil
		}
		tags := res.Tags
		if tags == nil {
			tags = []string{}
		}
		return mcpJSON(suggestTagsResponse{SuggestedTags: tags})
	}
}

func mcpListModels(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reg := deps.Generator.Registry()
		return mcpJSON(modelsResponse{Default: reg.Default(), Models: reg.Models()})
	}
}

func mcpResourceModels(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		reg := deps.Generator.Registry()
		b, err := json.Marshal(modelsResponse{Default: reg.Default(), Models: reg.Models()})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal models: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// decodeArg decodes the named argument into v. Objects and JSON strings are
// both accepted. It reports whether the argument was present.
func decodeArg(req mcp.CallToolRequest, name string, v any) (bool, error) {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		return false, nil
	}
	var b []byte
	if s, isString := raw.(string); isString {
		b = []byte(s)
	} else {
		var err error
		if b, err = json.Marshal(raw); err != nil {
			return true, err
		}
	}
	return true, json.Unmarshal(b, v)
}

// mcpFailure renders a gateway error with its hint.
func mcpFailure(err error) *mcp.CallToolResult {
	_, body := gateway.Describe(err)
	parts := []string{body.Error}
	if body.Details != "" {
		parts = append(parts, body.Details)
	}
	if body.Hint != "" {
		parts = append(parts, body.Hint)
	}
	return mcpError(strings.Join(parts, ": "))
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
