// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the voxnote conversation and note lookups via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/voxnote/internal/conversation"
	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/noteservice"
)

const helpURI = "voxnote://help"

// Server wraps the MCP server with voxnote tools.
type Server struct {
	mcp    *server.MCPServer
	engine *conversation.Engine
	svc    *noteservice.Service
}

// New creates a new MCP server with all voxnote tools registered.
func New(engine *conversation.Engine, svc *noteservice.Service, version string) *Server {
	s := &Server{engine: engine, svc: svc}

	s.mcp = server.NewMCPServer(
		"voxnote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("process_utterance",
		mcp.WithDescription("Send one spoken or typed utterance to a note conversation. "+
			"Commands that change notes ask for confirmation first; answer with yes/no (כן/לא) "+
			"in the same session. Read "+helpURI+" for the supported phrasing."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The utterance, English or Hebrew")),
		mcp.WithString("session_id", mcp.Description("Conversation id; empty starts a new one")),
		mcp.WithString("language", mcp.Description("Language tag: en or he (defaults to the script of the text)")),
	), s.processUtterance)

	s.mcp.AddTool(mcp.NewTool("find_notes",
		mcp.WithDescription("Find notes by exact title, falling back to title or description substring."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	), s.findNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes as id and title lines."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a note and its direct children by id or exact title."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id or exact title")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard a conversation and its pending confirmation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
	), s.resetSession)

	s.mcp.AddResource(
		mcp.NewResource(helpURI, "Voice command guide",
			mcp.WithResourceDescription("Supported English and Hebrew phrasing for note commands."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readHelpResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type turnResult struct {
	SessionID string `json:"session_id"`
	conversation.Result
}

type noteWithChildren struct {
	models.Note
	ChildNotes []models.Note `json:"child_notes"`
}

func (s *Server) processUtterance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := ""
	if v, err := req.RequireString("session_id"); err == nil {
		id = v
	}
	var lang locale.Language
	if v, err := req.RequireString("language"); err == nil && v != "" {
		lang = locale.ParseLanguage(v)
	}

	id, res := s.engine.Process(ctx, id, text, lang)
	return jsonResult(turnResult{SessionID: id, Result: res})
}

func (s *Server) findNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Find(ctx, noteservice.FindParams{Query: query})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(res.Matches) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return jsonResult(res.Matches)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := s.svc.Notes()
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("%s\t%s", n.ID, n.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, ok := s.svc.Store().Resolve(target)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", target)), nil
	}
	children := s.svc.Children(note.ID)
	if children == nil {
		children = []models.Note{}
	}
	return jsonResult(noteWithChildren{Note: note, ChildNotes: children})
}

func (s *Server) resetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.engine.Reset(id) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown session: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reset: %s", id)), nil
}

func (s *Server) readHelpResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text := locale.Help(locale.English) + "\n\n" + locale.Help(locale.Hebrew)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      helpURI,
			MIMEType: "text/plain",
			Text:     text,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
