// Package mcpserver exposes the diagnostic agent over the Model Context
// Protocol so editor and agent hosts can start, resume, and inspect
// diagnoses as tools.
package mcpserver

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"triage/internal/diagnose"
	"triage/internal/logging"
)

// Server wraps the MCP SDK server around a diagnostic agent.
type Server struct {
	MCPServer *sdkmcp.Server
	agent     *diagnose.Agent
}

// NewServer creates the MCP server and registers the diagnosis tools.
func NewServer(agent *diagnose.Agent) *Server {
	s := &Server{agent: agent}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "triage", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over the given transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, transport)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "start_diagnosis",
		Description: "Start diagnosing a bug report. Returns the diagnostic report, or a clarifying question with a session ID to resume with.",
	}, s.handleStartDiagnosis)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "resume_diagnosis",
		Description: "Answer a clarifying question and continue a suspended diagnosis session.",
	}, s.handleResumeDiagnosis)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Inspect a diagnosis session: status, phase, pending question, and the report when complete.",
	}, s.handleGetSession)
}

// --- Tool input/output types ---

type startDiagnosisInput struct {
	Description string `json:"description" jsonschema:"the bug report text to diagnose"`
}

type diagnosisOutput struct {
	SessionID string `json:"session_id"`
	Completed bool   `json:"completed"`
	Question  string `json:"question,omitempty"`
	Report    string `json:"report,omitempty"`
}

type resumeDiagnosisInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from start_diagnosis"`
	Answer    string `json:"answer" jsonschema:"the user's answer to the pending question"`
}

type getSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from start_diagnosis"`
}

type getSessionOutput struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Phase     string `json:"phase"`
	Question  string `json:"question,omitempty"`
	Report    string `json:"report,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleStartDiagnosis(ctx context.Context, _ *sdkmcp.CallToolRequest, input startDiagnosisInput) (*sdkmcp.CallToolResult, diagnosisOutput, error) {
	if input.Description == "" {
		return nil, diagnosisOutput{}, fmt.Errorf("description is required")
	}
	res, err := s.agent.Start(ctx, input.Description)
	if err != nil {
		return nil, diagnosisOutput{}, fmt.Errorf("start diagnosis: %w", err)
	}
	logging.New("mcp").Info("diagnosis started", "session", res.SessionID, "completed", res.Completed)
	return nil, resultOutput(res), nil
}

func (s *Server) handleResumeDiagnosis(ctx context.Context, _ *sdkmcp.CallToolRequest, input resumeDiagnosisInput) (*sdkmcp.CallToolResult, diagnosisOutput, error) {
	if input.SessionID == "" {
		return nil, diagnosisOutput{}, fmt.Errorf("session_id is required")
	}
	res, err := s.agent.Resume(ctx, input.SessionID, input.Answer)
	if err != nil {
		return nil, diagnosisOutput{}, fmt.Errorf("resume diagnosis: %w", err)
	}
	return nil, resultOutput(res), nil
}

func (s *Server) handleGetSession(ctx context.Context, _ *sdkmcp.CallToolRequest, input getSessionInput) (*sdkmcp.CallToolResult, getSessionOutput, error) {
	if input.SessionID == "" {
		return nil, getSessionOutput{}, fmt.Errorf("session_id is required")
	}
	status, err := s.agent.Status(ctx, input.SessionID)
	if err != nil {
		return nil, getSessionOutput{}, fmt.Errorf("get session: %w", err)
	}
	out := getSessionOutput{
		SessionID: status.SessionID,
		Status:    status.Status,
		Phase:     string(status.Phase),
		Question:  status.Question,
	}
	if status.Phase == diagnose.PhaseComplete {
		out.Report = status.State.FinalReport()
	}
	return nil, out, nil
}

func resultOutput(res *diagnose.Result) diagnosisOutput {
	return diagnosisOutput{
		SessionID: res.SessionID,
		Completed: res.Completed,
		Question:  res.Question,
		Report:    res.Report,
	}
}
