// Package mcp provides a Model Context Protocol server for Canon.
//
// It exposes the catalog as MCP tools (resolve, figure lookup, duplicate
// detection, consensus recompute, stats) over stdio transport, plus the
// catalog statistics and top figures as MCP resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/histrank/canon/internal/consensus"
	"github.com/histrank/canon/internal/pipeline"
	"github.com/histrank/canon/internal/resolve"
	"github.com/histrank/canon/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store     store.Store
	Compounds map[string][]string // normalized phrase -> figure ids
	Version   string
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines.
// SQLite (even with WAL) supports only one writer at a time, and
// concurrent reads during writes can return stale results.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Canon tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Canon",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerResolveTool(s, cfg.Store, cfg.Compounds)
	registerFigureTool(s, cfg.Store)
	registerDuplicatesTool(s, cfg.Store)
	registerConsensusTool(s, cfg.Store)
	registerStatsTool(s, cfg.Store)

	registerStatsResource(s, cfg.Store)
	registerTopFiguresResource(s, cfg.Store)

	return s
}

// --- Tools ---

func registerResolveTool(s *server.MCPServer, st store.Store, compounds map[string][]string) {
	tool := mcp.NewTool("canon_resolve",
		mcp.WithDescription("Resolve a raw name string to canonical figure ids through the alias cascade. Reports which stage matched (compound, slug, alias, canonical, last-name, fuzzy) or none."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Raw name string to resolve, e.g. 'Napoléon' or 'Watson and Crick'"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		name, err := req.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name is required"), nil
		}

		// The snapshot is rebuilt per call; merges between calls would
		// otherwise leave the resolver pointing at absorbed ids.
		snap, err := resolve.LoadSnapshot(ctx, st)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading snapshot: %v", err)), nil
		}
		res := resolve.NewResolver(snap, compounds).Resolve(name)

		payload := map[string]interface{}{
			"name":       name,
			"matched":    res.Matched(),
			"stage":      res.Stage,
			"figure_ids": res.FigureIDs,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerFigureTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("canon_figure",
		mcp.WithDescription("Fetch one canonical figure by id, including its consensus rank, variance score, and per-source ranking rows."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Figure id (slug), e.g. 'isaac-newton'"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		fig, err := st.GetFigure(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading figure: %v", err)), nil
		}
		if fig == nil {
			return mcp.NewToolResultError(fmt.Sprintf("figure %q not found", id)), nil
		}
		rows, err := st.ListRankings(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading rankings: %v", err)), nil
		}

		payload := map[string]interface{}{
			"figure":   fig,
			"rankings": rows,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerDuplicatesTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("canon_duplicates",
		mcp.WithDescription("Scan the catalog for likely duplicate figure pairs. Returns the candidate report and the stricter safe subset. Read-only; merging is a separate reviewed step."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("window",
			mcp.Description("Max figures scanned, most prominent first (default 300)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		window := 0
		if w, err := req.RequireFloat("window"); err == nil && w > 0 {
			window = int(w)
		}

		report, err := pipeline.DetectFromStore(ctx, st, window)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("detection error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(report, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerConsensusTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("canon_consensus",
		mcp.WithDescription("Recompute consensus rank and variance score from the stored ranking rows, for one figure or the whole catalog."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("figure_id",
			mcp.Description("Figure id to recompute. Empty recomputes every ranked figure."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		if id, err := req.RequireString("figure_id"); err == nil && id != "" {
			summary, err := consensus.RecomputeFigure(ctx, st, id)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("recompute error: %v", err)), nil
			}
			data, _ := json.MarshalIndent(map[string]interface{}{
				"figure_id":      id,
				"consensus_rank": summary.ConsensusRank,
				"variance_score": summary.VarianceScore,
				"source_count":   summary.SourceCount,
				"sample_count":   summary.SampleCount,
			}, "", "  ")
			return mcp.NewToolResultText(string(data)), nil
		}

		n, err := consensus.RecomputeAll(ctx, st)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recompute error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"recomputed": n}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("canon_stats",
		mcp.WithDescription("Catalog statistics: figure, ranking, and alias counts, distinct sources, and ranked coverage."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(statsPayload(stats), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func statsPayload(stats *store.Stats) map[string]interface{} {
	return map[string]interface{}{
		"figures":       stats.FigureCount,
		"rankings":      stats.RankingCount,
		"aliases":       stats.AliasCount,
		"sources":       stats.SourceCount,
		"ranked":        stats.RankedCount,
		"db_size_bytes": stats.DBSizeBytes,
	}
}
