// Package server exposes the session engine over the Model Context
// Protocol: seven boolean tool operations plus two read-only
// resources. The wire-level names and URIs are fixed; internally every
// call goes through a closed operation enum so dispatch stays
// exhaustive.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/audiolibrelab/takedeck/internal/service"
)

const (
	serverName    = "takedeck"
	serverVersion = "1.0.0"

	catalogURI = "data://recordings"
	currURI    = "data://curr"
)

type operation int

const (
	opStartRecording operation = iota
	opStopRecording
	opStartPlaying
	opStopPlaying
	opSaveCurr
	opSetAsCurr
	opDelete
)

// Server dispatches MCP tool calls and resource reads to the engine.
// It performs no bookkeeping of its own; all state checks live in the
// service.
type Server struct {
	svc service.Service
	mcp *mcpserver.MCPServer
}

// New builds the MCP server around an existing engine instance.
func New(svc service.Service) *Server {
	s := &Server{
		svc: svc,
		mcp: mcpserver.NewMCPServer(serverName, serverVersion,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcp)
}

// ServeHTTP serves MCP over streamable HTTP on addr. It blocks.
func (s *Server) ServeHTTP(addr string) error {
	slog.Info("MCP server listening", "addr", addr)
	return mcpserver.NewStreamableHTTPServer(s.mcp).Start(addr)
}

func (s *Server) registerTools() {
	plain := []struct {
		op   operation
		name string
		desc string
	}{
		{opStartRecording, "startRecording", "Start recording. Returns true if successful, false otherwise."},
		{opStopRecording, "stopRecording", "Stop recording and save the audio as the working take. Returns true if successful, false otherwise."},
		{opStartPlaying, "startPlaying", "Start playing the working take. Returns true if successful, false otherwise."},
		{opStopPlaying, "stopPlaying", "Stop playing the working take. Returns true if successful, false otherwise."},
	}
	for _, td := range plain {
		op := td.op
		s.mcp.AddTool(mcp.NewTool(td.name, mcp.WithDescription(td.desc)),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return s.dispatch(ctx, op, "")
			})
	}

	named := []struct {
		op      operation
		name    string
		arg     string
		argDesc string
		desc    string
	}{
		{opSaveCurr, "saveCurr", "name", "Name for the saved take", "Save a copy of the working take under the given name, which must not already exist. Returns true if successful, false otherwise."},
		{opSetAsCurr, "setAsCurr", "identifier", "Saved take name or .wav file path", "If an existing .wav file path is given, it becomes the working take. Otherwise the saved take with that name becomes the working take. Returns true if successful, false otherwise."},
		{opDelete, "delete", "name", "Name of the saved take", "Delete the saved take with the given name. Returns true if successful, false otherwise."},
	}
	for _, td := range named {
		op := td.op
		arg := td.arg
		s.mcp.AddTool(
			mcp.NewTool(td.name,
				mcp.WithDescription(td.desc),
				mcp.WithString(arg, mcp.Required(), mcp.Description(td.argDesc)),
			),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				val, err := req.RequireString(arg)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return s.dispatch(ctx, op, val)
			})
	}
}

// dispatch routes a decoded operation to the engine. Precondition
// failures come back as the boolean result; device and storage
// failures as tool errors.
func (s *Server) dispatch(ctx context.Context, op operation, arg string) (*mcp.CallToolResult, error) {
	var ok bool
	var err error
	switch op {
	case opStartRecording:
		ok, err = s.svc.StartRecording()
	case opStopRecording:
		ok, err = s.svc.StopRecording()
	case opStartPlaying:
		ok, err = s.svc.StartPlaying()
	case opStopPlaying:
		ok, err = s.svc.StopPlaying()
	case opSaveCurr:
		ok, err = s.svc.SaveCurrent(arg)
	case opSetAsCurr:
		ok, err = s.svc.SetAsCurrent(arg)
	case opDelete:
		ok, err = s.svc.Delete(arg)
	default:
		return nil, fmt.Errorf("unknown operation %d", op)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strconv.FormatBool(ok)), nil
}

func (s *Server) registerResources() {
	s.mcp.AddResource(
		mcp.NewResource(catalogURI, "Take catalog",
			mcp.WithResourceDescription("Maps a saved take name or \"curr\" to its size in bytes and runtime in seconds."),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			data, err := json.Marshal(s.svc.CatalogSnapshot())
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
			}, nil
		})

	s.mcp.AddResource(
		mcp.NewResource(currURI, "Working take location",
			mcp.WithResourceDescription("The absolute file path of the working take."),
			mcp.WithMIMEType("text/plain"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "text/plain", Text: s.svc.WorkingTakePath()},
			}, nil
		})
}
