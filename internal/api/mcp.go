package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lextriage/lextriage/internal/guidance"
	"github.com/lextriage/lextriage/internal/ledger"
	"github.com/lextriage/lextriage/internal/storage"
	"github.com/lextriage/lextriage/internal/triage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Triage *triage.Service
	Store  *storage.Store
	Guide  *guidance.Guide
}

// NewMCPServer creates an MCP server with all lextriage tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"lextriage",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("lextriage classifies a legal query into a domain, retrieves procedural guidance for it, and learns from feedback on past answers."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("classify_query",
			mcp.WithDescription("Classify a free-text legal query into a domain with a confidence score. Optional feedback on a prior answer for the same query is learned before classifying."),
			mcp.WithString("query", mcp.Description("The legal question or problem description"), mcp.Required()),
			mcp.WithString("feedback", mcp.Description("Optional feedback on the previous classification of this query")),
			mcp.WithString("session_id", mcp.Description("Optional session identifier to group related queries")),
		),
		mcpClassifyQuery(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_feedback",
			mcp.WithDescription("Record feedback on a past classification so future answers for similar queries improve."),
			mcp.WithString("query", mcp.Description("The query that was classified"), mcp.Required()),
			mcp.WithString("domain", mcp.Description("The domain that was assigned"), mcp.Required()),
			mcp.WithString("feedback", mcp.Description("Free-text feedback, e.g. 'helpful' or 'wrong domain'"), mcp.Required()),
		),
		mcpSubmitFeedback(deps),
	)

	s.AddTool(
		mcp.NewTool("learning_stats",
			mcp.WithDescription("Report accumulated feedback counts and per-domain confidence adjustments."),
		),
		mcpLearningStats(deps),
	)

	s.AddTool(
		mcp.NewTool("reset_learning",
			mcp.WithDescription("Irreversibly clear all learned feedback state. Requires confirm=true."),
			mcp.WithBoolean("confirm", mcp.Description("Must be true to actually reset"), mcp.Required()),
		),
		mcpResetLearning(deps),
	)

	s.AddTool(
		mcp.NewTool("get_guidance",
			mcp.WithDescription("Return the procedural guidance (route summary, timeline, expected outcome, and steps) for a legal domain."),
			mcp.WithString("domain", mcp.Description("Domain name, e.g. tenant_rights"), mcp.Required()),
		),
		mcpGetGuidance(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"stats://learning",
			"Learning Statistics",
			mcp.WithResourceDescription("Accumulated feedback counters and per-domain confidence adjustments as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"history://recent",
			"Recent Consultations",
			mcp.WithResourceDescription("Last 10 recorded consultations (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpClassifyQuery(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		feedback := req.GetString("feedback", "")
		sessionID := req.GetString("session_id", "")

		result := deps.Triage.ClassifyWithLearning(query, feedback, sessionID)

		c := storage.Consultation{
			ID:             uuid.New().String(),
			SessionID:      result.SessionID,
			CreatedAt:      result.Timestamp,
			Query:          query,
			Domain:         result.Domain,
			Confidence:     result.Confidence,
			BaseDomain:     result.BaseDomain,
			BaseConfidence: result.BaseConfidence,
			Overrode:       result.Overrode,
		}
		if feedback != "" {
			c.Feedback = feedback
			c.Polarity = string(ledger.ClassifyFeedback(feedback))
		}
		// Best effort: a history failure must not hide the classification.
		saveErr := deps.Store.SaveConsultation(c)

		out := map[string]any{
			"consultation_id": c.ID,
			"domain":          result.Domain,
			"confidence":      result.Confidence,
			"session_id":      result.SessionID,
			"timestamp":       result.Timestamp.Format(time.RFC3339),
		}
		if result.Overrode {
			out["overrode"] = true
			out["base_domain"] = result.BaseDomain
		}
		if saveErr != nil {
			out["history_warning"] = saveErr.Error()
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSubmitFeedback(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		domain, err := req.RequireString("domain")
		if err != nil {
			return mcpError("domain is required"), nil
		}
		feedback, err := req.RequireString("feedback")
		if err != nil {
			return mcpError("feedback is required"), nil
		}

		polarity := deps.Triage.SubmitFeedback(query, domain, feedback)
		return mcpText(fmt.Sprintf("Recorded %s feedback for domain %s", polarity, domain)), nil
	}
}

func mcpLearningStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(deps.Triage.Stats())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResetLearning(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !req.GetBool("confirm", false) {
			return mcpError("reset is irreversible; call again with confirm=true"), nil
		}

		if err := deps.Triage.ResetLearning(); err != nil {
			return mcpError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcpText("Learning state cleared"), nil
	}
}

func mcpGetGuidance(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		domain, err := req.RequireString("domain")
		if err != nil {
			return mcpError("domain is required"), nil
		}

		out := map[string]any{
			"domain": domain,
			"route":  deps.Guide.Lookup(domain),
			"steps":  deps.Guide.ProcessSteps(domain),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal guidance: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceStats(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Triage.Stats())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stats: %w", err)
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

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		consultations, err := deps.Store.ListConsultations(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list consultations: %w", err)
		}

		type consultationSummary struct {
			ID         string  `json:"id"`
			CreatedAt  string  `json:"created_at"`
			Query      string  `json:"query"`
			Domain     string  `json:"domain"`
			Confidence float64 `json:"confidence"`
		}

		summaries := make([]consultationSummary, len(consultations))
		for i, c := range consultations {
			query := c.Query
			if utf8.RuneCountInString(query) > 200 {
				runes := []rune(query)
				query = string(runes[:200]) + "..."
			}
			summaries[i] = consultationSummary{
				ID:         c.ID,
				CreatedAt:  c.CreatedAt.Format(time.RFC3339),
				Query:      query,
				Domain:     c.Domain,
				Confidence: c.Confidence,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal consultations: %w", err)
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
