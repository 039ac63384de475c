package server

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/audiolibrelab/takedeck/internal/take"
)

// stubService records which operation was invoked and returns canned
// results.
type stubService struct {
	lastOp  string
	lastArg string
	ok      bool
	err     error
}

func (s *stubService) StartRecording() (bool, error) { s.lastOp = "startRecording"; return s.ok, s.err }
func (s *stubService) StopRecording() (bool, error)  { s.lastOp = "stopRecording"; return s.ok, s.err }
func (s *stubService) StartPlaying() (bool, error)   { s.lastOp = "startPlaying"; return s.ok, s.err }
func (s *stubService) StopPlaying() (bool, error)    { s.lastOp = "stopPlaying"; return s.ok, s.err }

func (s *stubService) SaveCurrent(name string) (bool, error) {
	s.lastOp, s.lastArg = "saveCurr", name
	return s.ok, s.err
}

func (s *stubService) SetAsCurrent(identifier string) (bool, error) {
	s.lastOp, s.lastArg = "setAsCurr", identifier
	return s.ok, s.err
}

func (s *stubService) Delete(name string) (bool, error) {
	s.lastOp, s.lastArg = "delete", name
	return s.ok, s.err
}

func (s *stubService) CatalogSnapshot() map[string]take.Metadata {
	return map[string]take.Metadata{"curr": {Size: 176444, Time: 2.0}}
}

func (s *stubService) WorkingTakePath() string { return "/takes/curr.wav" }
func (s *stubService) Close() error            { return nil }

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("Expected single content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestDispatch_RoutesEveryOperation(t *testing.T) {
	cases := []struct {
		op      operation
		arg     string
		wantOp  string
		wantArg string
	}{
		{opStartRecording, "", "startRecording", ""},
		{opStopRecording, "", "stopRecording", ""},
		{opStartPlaying, "", "startPlaying", ""},
		{opStopPlaying, "", "stopPlaying", ""},
		{opSaveCurr, "take1", "saveCurr", "take1"},
		{opSetAsCurr, "take1", "setAsCurr", "take1"},
		{opDelete, "take1", "delete", "take1"},
	}

	for _, tc := range cases {
		t.Run(tc.wantOp, func(t *testing.T) {
			stub := &stubService{ok: true}
			srv := New(stub)

			res, err := srv.dispatch(context.Background(), tc.op, tc.arg)
			if err != nil {
				t.Fatalf("dispatch failed: %v", err)
			}
			if stub.lastOp != tc.wantOp {
				t.Errorf("Expected %s invoked, got %s", tc.wantOp, stub.lastOp)
			}
			if stub.lastArg != tc.wantArg {
				t.Errorf("Expected arg %q, got %q", tc.wantArg, stub.lastArg)
			}
			if got := resultText(t, res); got != "true" {
				t.Errorf("Expected result \"true\", got %q", got)
			}
		})
	}
}

func TestDispatch_PreconditionFailureIsFalseNotError(t *testing.T) {
	stub := &stubService{ok: false}
	srv := New(stub)

	res, err := srv.dispatch(context.Background(), opStartRecording, "")
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if res.IsError {
		t.Error("Precondition failure must not be a tool error")
	}
	if got := resultText(t, res); got != "false" {
		t.Errorf("Expected result \"false\", got %q", got)
	}
}

func TestDispatch_DeviceFailureIsToolError(t *testing.T) {
	stub := &stubService{ok: false, err: errors.New("stream gone")}
	srv := New(stub)

	res, err := srv.dispatch(context.Background(), opStopRecording, "")
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !res.IsError {
		t.Error("Expected a tool error for a device failure")
	}
}
