package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScoreClamping(t *testing.T) {
	assert.Equal(t, ActivationScore(0), NewScore(-0.5))
	assert.Equal(t, ActivationScore(1), NewScore(1.5))
	assert.Equal(t, ActivationScore(0.7), NewScore(0.7))
}

func TestTaskContextValidate(t *testing.T) {
	tests := []struct {
		name    string
		context TaskContext
		wantErr bool
	}{
		{
			name:    "empty context",
			context: TaskContext{UserIntent: "do something"},
			wantErr: false,
		},
		{
			name: "contents subset of paths",
			context: TaskContext{
				FilePaths:    []string{"a.go", "b.go"},
				FileContents: map[string]string{"a.go": "package main"},
			},
			wantErr: false,
		},
		{
			name: "contents key missing from paths",
			context: TaskContext{
				FilePaths:    []string{"a.go"},
				FileContents: map[string]string{"b.go": "package main"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.context.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKeywordScore(t *testing.T) {
	keywords := []string{"review", "check", "quality"}

	assert.InDelta(t, 0.25, KeywordScore("please Review this", keywords, 0.25), 1e-9)
	assert.InDelta(t, 0.5, KeywordScore("check the quality", keywords, 0.25), 1e-9)
	assert.InDelta(t, 0.0, KeywordScore("write a feature", keywords, 0.25), 1e-9)
}

func TestFileTypeScore(t *testing.T) {
	assert.InDelta(t, 0.1, FileTypeScore([]string{"src/main.go"}, []string{"go"}, 0.1), 1e-9)
	assert.InDelta(t, 0.1, FileTypeScore([]string{"a.txt", "b.RS"}, []string{"rs"}, 0.1), 1e-9)
	assert.InDelta(t, 0.0, FileTypeScore([]string{"a.txt"}, []string{"go"}, 0.1), 1e-9)
	assert.InDelta(t, 0.0, FileTypeScore(nil, []string{"go"}, 0.1), 1e-9)
}

func TestGitScore(t *testing.T) {
	assert.InDelta(t, 0.1, GitScore(&GitContext{Branch: "main"}, 0.1), 1e-9)
	assert.InDelta(t, 0.0, GitScore(nil, 0.1), 1e-9)
}

func TestIsBudgetExhausted(t *testing.T) {
	assert.True(t, IsBudgetExhausted(spentBudgetError{}))
	assert.True(t, IsBudgetExhausted(fmt.Errorf("execute: %w", spentBudgetError{})))
	assert.False(t, IsBudgetExhausted(errors.New("file not found")))
	assert.False(t, IsBudgetExhausted(nil))
}

func TestCustomAgentSurfacesBudgetExhaustion(t *testing.T) {
	a := NewCustomAgent(Definition{ID: "docs", Keywords: []string{"docs"}})
	tk := &stubToolkit{readErr: spentBudgetError{}}

	task := Task{Context: TaskContext{
		FilePaths:  []string{"README.md"},
		UserIntent: "docs pass",
	}}

	_, err := a.Execute(context.Background(), task, tk)
	require.Error(t, err)
	assert.True(t, IsBudgetExhausted(err))
}
