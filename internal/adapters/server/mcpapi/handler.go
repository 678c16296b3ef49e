// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/missionctl/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the mission read tools.
func NewHandler(cfg Config, mission common.MissionService) (*Handler, error) {
	if mission == nil {
		return nil, fmt.Errorf("mission service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, mission)
	registerInsightTools(mcpSrv, mission)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "missionctl"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// filterOptions declares the shared board filter arguments.
func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("q", mcp.Description("Case-insensitive title substring")),
		mcp.WithArray("priorities", mcp.Description("Priority filter (High, Normal, Low)"), mcp.WithStringItems()),
		mcp.WithArray("statuses", mcp.Description("Status filter"), mcp.WithStringItems()),
		mcp.WithArray("domains", mcp.Description("Domain filter"), mcp.WithStringItems()),
	}
}

// boardRequestFromTool reads the shared filter arguments from one tool call.
func boardRequestFromTool(req mcp.CallToolRequest) common.BoardRequest {
	return common.BoardRequest{
		Query:      req.GetString("q", ""),
		Priorities: req.GetStringSlice("priorities", nil),
		Statuses:   req.GetStringSlice("statuses", nil),
		Domains:    req.GetStringSlice("domains", nil),
	}
}

// registerBoardTools registers the board and flat item list tools.
func registerBoardTools(srv *mcpserver.MCPServer, mission common.MissionService) {
	srv.AddTool(
		mcp.NewTool(
			"missionctl.board",
			append([]mcp.ToolOption{
				mcp.WithDescription("Return the filtered mission board grouped into five status columns."),
			}, filterOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := mission.Board(ctx, boardRequestFromTool(req))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"missionctl.items",
			append([]mcp.ToolOption{
				mcp.WithDescription("Return the filtered work items as one flat list in feed order."),
			}, filterOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			items, err := mission.Items(ctx, boardRequestFromTool(req))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"items": items,
				"count": len(items),
			})
			if err != nil {
				return nil, fmt.Errorf("encode items result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"missionctl.vocabulary",
			mcp.WithDescription("List the priority, status, and domain values accepted by the filters."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			vocab, err := mission.Vocabulary(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(vocab)
			if err != nil {
				return nil, fmt.Errorf("encode vocabulary result: %w", err)
			}
			return result, nil
		},
	)
}

// registerInsightTools registers stats, reviewer, contributor, and pulse tools.
func registerInsightTools(srv *mcpserver.MCPServer, mission common.MissionService) {
	srv.AddTool(
		mcp.NewTool(
			"missionctl.stats",
			mcp.WithDescription("Count open, in-progress, and completed items across the whole dataset."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			stats, err := mission.Stats(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(stats)
			if err != nil {
				return nil, fmt.Errorf("encode stats result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"missionctl.reviewers",
			mcp.WithDescription("Return top reviewers and the community happiness score."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := mission.Reviewers(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode reviewers result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"missionctl.contributor",
			mcp.WithDescription("Return one contributor profile by login."),
			mcp.WithString("login", mcp.Required(), mcp.Description("Contributor login")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			login, err := req.RequireString("login")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			contributor, err := mission.Contributor(ctx, login)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(contributor)
			if err != nil {
				return nil, fmt.Errorf("encode contributor result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"missionctl.pulse",
			mcp.WithDescription("Return recent repository activity, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum events to return")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			events, err := mission.Pulse(ctx, req.GetInt("limit", 0))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"events": events,
			})
			if err != nil {
				return nil, fmt.Errorf("encode pulse result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrServiceUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
