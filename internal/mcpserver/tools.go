package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dashlayout/internal/dashboard"
	"dashlayout/internal/merge"
	"dashlayout/internal/panel"
	"dashlayout/internal/report"
	"dashlayout/internal/variables"
	"dashlayout/pkg/logging"
)

// Tool names without the configured prefix.
const (
	ToolPackLegacyRows = "pack_legacy_rows"
	ToolExpandRepeats  = "expand_repeats"
	ToolReconcile      = "reconcile_panels"
	ToolValidateLayout = "validate_layout"
)

func (s *Server) toolName(name string) string {
	return s.cfg.Server.ToolPrefix + name
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(s.toolName(ToolPackLegacyRows),
				mcp.WithDescription("Convert a legacy row-based dashboard into grid-positioned panels"),
				mcp.WithString("document",
					mcp.Required(),
					mcp.Description("Dashboard JSON with a rows array and schemaVersion below 16"),
				),
			),
			Handler: s.handlePackLegacyRows,
		},
		{
			Tool: mcp.NewTool(s.toolName(ToolExpandRepeats),
				mcp.WithDescription("Expand repeating panels and rows for the selected variable values"),
				mcp.WithString("document",
					mcp.Required(),
					mcp.Description("Dashboard JSON"),
				),
				mcp.WithString("variables",
					mcp.Description("Template variables as JSON or YAML: {\"variables\": [{\"name\", \"options\"}]}"),
				),
			),
			Handler: s.handleExpandRepeats,
		},
		{
			Tool: mcp.NewTool(s.toolName(ToolReconcile),
				mcp.WithDescription("Reconcile a live panel list against an incoming one and report the actions taken"),
				mcp.WithString("live",
					mcp.Required(),
					mcp.Description("Current dashboard JSON or panel array"),
				),
				mcp.WithString("incoming",
					mcp.Required(),
					mcp.Description("Incoming dashboard JSON or panel array"),
				),
			),
			Handler: s.handleReconcile,
		},
		{
			Tool: mcp.NewTool(s.toolName(ToolValidateLayout),
				mcp.WithDescription("Check grid bounds, overlaps, id uniqueness and row nesting of a dashboard"),
				mcp.WithString("document",
					mcp.Required(),
					mcp.Description("Dashboard JSON"),
				),
			),
			Handler: s.handleValidateLayout,
		},
	}
}

type packResult struct {
	Document    dashboard.Document `json:"document"`
	PackedRows  int                `json:"packedRows"`
	SkippedRows int                `json:"skippedRows"`
	AbortedRows int                `json:"abortedRows"`
	Errors      []string           `json:"errors,omitempty"`
}

func (s *Server) handlePackLegacyRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := requireDocument(request, "document")
	if errResult != nil {
		return errResult, nil
	}
	if !doc.IsLegacy() {
		return mcp.NewToolResultError("document has no legacy rows to pack"), nil
	}

	m := dashboard.New(s.cfg.Grid, nil)
	defer m.Destroy()

	res, err := m.PackLegacyRows(doc.Rows)
	if err != nil {
		logging.Warn("MCPServer", "Packing %q left %d rows out: %v", doc.Title, res.AbortedRows, err)
	}
	return jsonResult(packResult{
		Document:    m.Document(doc.Title),
		PackedRows:  res.PackedRows,
		SkippedRows: res.SkippedRows,
		AbortedRows: res.AbortedRows,
		Errors:      report.Problems(err),
	})
}

type expandResult struct {
	Document dashboard.Document `json:"document"`
	Errors   []string           `json:"errors,omitempty"`
}

func (s *Server) handleExpandRepeats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := requireDocument(request, "document")
	if errResult != nil {
		return errResult, nil
	}

	store, err := s.variableStore(request.GetString("variables", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load variables: %v", err)), nil
	}

	m, err := dashboard.Load(doc, s.cfg.Grid, store)
	defer m.Destroy()
	if err != nil {
		logging.Warn("MCPServer", "Expanding %q with rows left out by migration: %v", doc.Title, err)
	}

	return jsonResult(expandResult{
		Document: report.LayoutDocument(doc.Title, m.ExpandRepeats()),
		Errors:   report.Problems(err),
	})
}

func (s *Server) variableStore(raw string) (*variables.Store, error) {
	if raw != "" {
		vars, err := variables.Parse([]byte(raw))
		if err != nil {
			return nil, err
		}
		return variables.NewStore(vars...), nil
	}
	if path := s.cfg.Repeat.VariablesFile; path != "" {
		return variables.LoadFile(path)
	}
	return variables.NewStore(), nil
}

type reconcileResult struct {
	merge.Result
	Panels []panel.Spec `json:"panels"`
}

func (s *Server) handleReconcile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	live, errResult := requirePanels(request, "live")
	if errResult != nil {
		return errResult, nil
	}
	incoming, errResult := requirePanels(request, "incoming")
	if errResult != nil {
		return errResult, nil
	}

	m := dashboard.New(s.cfg.Grid, nil)
	defer m.Destroy()
	m.SetPanels(live)

	res := m.Reconcile(incoming)
	return jsonResult(reconcileResult{Result: res, Panels: m.SaveModel()})
}

type validateResult struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
}

func (s *Server) handleValidateLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := requireDocument(request, "document")
	if errResult != nil {
		return errResult, nil
	}

	m, err := dashboard.Load(doc, s.cfg.Grid, nil)
	defer m.Destroy()

	problems := report.Problems(err)
	problems = append(problems, report.Problems(m.Validate())...)
	problems = append(problems, report.Problems(m.Overlaps())...)
	if problems == nil {
		problems = []string{}
	}
	return jsonResult(validateResult{Valid: len(problems) == 0, Problems: problems})
}

func requireDocument(request mcp.CallToolRequest, key string) (dashboard.Document, *mcp.CallToolResult) {
	raw, err := request.RequireString(key)
	if err != nil {
		return dashboard.Document{}, mcp.NewToolResultError(fmt.Sprintf("%s parameter is required", key))
	}
	doc, err := dashboard.ParseDocument([]byte(raw))
	if err != nil {
		return dashboard.Document{}, mcp.NewToolResultError(fmt.Sprintf("Invalid %s: %v", key, err))
	}
	return doc, nil
}

func requirePanels(request mcp.CallToolRequest, key string) ([]panel.Spec, *mcp.CallToolResult) {
	raw, err := request.RequireString(key)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%s parameter is required", key))
	}
	specs, err := dashboard.ParsePanels([]byte(raw))
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Invalid %s: %v", key, err))
	}
	return specs, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
