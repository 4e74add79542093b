package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/histrank/canon/internal/store"
)

func registerStatsResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"canon://stats",
		"Catalog Statistics",
		mcp.WithResourceDescription("Figure, ranking, and alias counts plus distinct sources and ranked coverage."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying stats resource: %w", err)
		}

		data, _ := json.MarshalIndent(statsPayload(stats), "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func registerTopFiguresResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"canon://figures/top",
		"Top Figures",
		mcp.WithResourceDescription("The 50 best-ranked figures by consensus rank."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		figures, err := st.ListFigures(ctx, store.ListOpts{Limit: 50, SortBy: "consensus"})
		if err != nil {
			return nil, fmt.Errorf("querying top figures resource: %w", err)
		}

		type topFigure struct {
			ID            string   `json:"id"`
			Name          string   `json:"name"`
			ConsensusRank *float64 `json:"consensus_rank,omitempty"`
			VarianceScore *float64 `json:"variance_score,omitempty"`
			HPIRank       *int     `json:"hpi_rank,omitempty"`
		}

		top := make([]topFigure, 0, len(figures))
		for _, f := range figures {
			top = append(top, topFigure{
				ID:            f.ID,
				Name:          f.Name,
				ConsensusRank: f.ConsensusRank,
				VarianceScore: f.VarianceScore,
				HPIRank:       f.HPIRank,
			})
		}

		payload := map[string]interface{}{
			"figures": top,
			"count":   len(top),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
