package agent

import (
	"context"
	"encoding/json"
	"errors"
)

// stubToolkit serves file reads from a map and rejects everything else.
// When readErr is set every read fails with it instead.
type stubToolkit struct {
	files     map[string]string
	readErr   error
	published []Message
	inbox     chan Message
}

func (s *stubToolkit) ReadFile(_ context.Context, path string) (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}
	content, ok := s.files[path]
	if !ok {
		return "", errors.New("file not found: " + path)
	}
	return content, nil
}

func (s *stubToolkit) WriteFile(context.Context, string, string) error {
	return errors.New("read-only stub")
}

func (s *stubToolkit) ExecuteCommand(context.Context, string, []string) (CommandOutput, error) {
	return CommandOutput{}, errors.New("no shell in stub")
}

func (s *stubToolkit) InvokeTool(context.Context, string, json.RawMessage) (string, error) {
	return "", errors.New("no tools in stub")
}

func (s *stubToolkit) Delegate(context.Context, string, Task) (Result, error) {
	return Result{}, errors.New("no delegation in stub")
}

func (s *stubToolkit) Publish(msg Message) error {
	s.published = append(s.published, msg)
	return nil
}

func (s *stubToolkit) Messages() <-chan Message {
	if s.inbox == nil {
		ch := make(chan Message)
		close(ch)
		return ch
	}
	return s.inbox
}

func (s *stubToolkit) WorkspaceRoot() string { return "/workspace" }

// spentBudgetError mimics the toolkit's iteration-budget error class.
type spentBudgetError struct{}

func (spentBudgetError) Error() string                 { return "iteration budget exceeded" }
func (spentBudgetError) IterationBudgetExceeded() bool { return true }
