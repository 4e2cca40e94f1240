package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"procureflow/backend/internal/engine"
	"procureflow/backend/internal/services"
	"procureflow/backend/pkg/models"
)

type Server struct {
	mcpServer *server.MCPServer
	workflows *services.WorkflowService
}

func NewServer(workflows *services.WorkflowService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Approval Workflow Engine",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		workflows: workflows,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"find_applicable_workflow",
			mcp.WithDescription("Select the approval workflow that applies to a requisition subject"),
			mcp.WithString("tenant_id", mcp.Required(), mcp.Description("The tenant owning the workflows")),
			mcp.WithString("subject", mcp.Required(), mcp.Description("JSON-encoded subject: department_id, department_code, category, cost, fields")),
		),
		s.handleFindApplicable,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"test_workflow",
			mcp.WithDescription("Dry-run a workflow against a subject and return the computed approval path"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow to walk")),
			mcp.WithString("tenant_id", mcp.Required(), mcp.Description("The tenant owning the workflow")),
			mcp.WithString("subject", mcp.Required(), mcp.Description("JSON-encoded subject to walk the graph with")),
		),
		s.handleTestWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"validate_workflow",
			mcp.WithDescription("Structurally validate a workflow graph"),
			mcp.WithString("nodes", mcp.Required(), mcp.Description("JSON-encoded node list")),
			mcp.WithString("connections", mcp.Description("JSON-encoded connection list")),
		),
		s.handleValidateWorkflow,
	)
}

func (s *Server) handleFindApplicable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	tenantID, ok := args["tenant_id"].(string)
	if !ok || tenantID == "" {
		return mcp.NewToolResultError("Missing required parameter: tenant_id"), nil
	}
	subject, errResult := decodeSubject(args)
	if errResult != nil {
		return errResult, nil
	}

	wf, err := s.workflows.FindApplicable(ctx, tenantID, subject)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to match workflow: %v", err)), nil
	}
	if wf == nil {
		return mcp.NewToolResultText("No applicable workflow"), nil
	}

	jsonBytes, _ := json.Marshal(wf)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleTestWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	workflowID, ok := args["workflow_id"].(string)
	if !ok || workflowID == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}
	tenantID, ok := args["tenant_id"].(string)
	if !ok || tenantID == "" {
		return mcp.NewToolResultError("Missing required parameter: tenant_id"), nil
	}
	subject, errResult := decodeSubject(args)
	if errResult != nil {
		return errResult, nil
	}

	result, err := s.workflows.ComputePath(ctx, tenantID, workflowID, subject)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to compute path: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleValidateWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	rawNodes, ok := args["nodes"].(string)
	if !ok || rawNodes == "" {
		return mcp.NewToolResultError("Missing required parameter: nodes"), nil
	}
	var nodes []models.Node
	if err := json.Unmarshal([]byte(rawNodes), &nodes); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid nodes: %v", err)), nil
	}

	var connections []models.Connection
	if rawConnections, ok := args["connections"].(string); ok && rawConnections != "" {
		if err := json.Unmarshal([]byte(rawConnections), &connections); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid connections: %v", err)), nil
		}
	}

	if err := engine.Validate(nodes, connections); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("invalid: %v", err)), nil
	}
	return mcp.NewToolResultText("valid"), nil
}

func decodeSubject(args map[string]interface{}) (*models.Subject, *mcp.CallToolResult) {
	raw, ok := args["subject"].(string)
	if !ok || raw == "" {
		return nil, mcp.NewToolResultError("Missing required parameter: subject")
	}
	var subject models.Subject
	if err := json.Unmarshal([]byte(raw), &subject); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Invalid subject: %v", err))
	}
	return &subject, nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
