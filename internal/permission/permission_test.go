package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanReadFile(t *testing.T) {
	tests := []struct {
		name     string
		perms    AgentPermissions
		path     string
		expected bool
	}{
		{
			name:     "no access denies reads",
			perms:    AgentPermissions{FileAccess: NoAccess},
			path:     "main.go",
			expected: false,
		},
		{
			name:     "read only with empty allow list permits",
			perms:    AgentPermissions{FileAccess: ReadOnly},
			path:     "src/main.go",
			expected: true,
		},
		{
			name:     "allow pattern match",
			perms:    AgentPermissions{FileAccess: ReadOnly, AllowPatterns: []string{"**/*.rs"}},
			path:     "src/a.rs",
			expected: true,
		},
		{
			name:     "allow pattern miss",
			perms:    AgentPermissions{FileAccess: ReadOnly, AllowPatterns: []string{"**/*.rs"}},
			path:     "src/a.go",
			expected: false,
		},
		{
			name: "deny wins over allow",
			perms: AgentPermissions{
				FileAccess:    ReadOnly,
				AllowPatterns: []string{"**/*.go"},
				DenyPatterns:  []string{"**/secrets/**"},
			},
			path:     "internal/secrets/key.go",
			expected: false,
		},
		{
			name:     "read write also reads",
			perms:    AgentPermissions{FileAccess: ReadWrite},
			path:     "notes.md",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.perms.CanReadFile(tt.path))
		})
	}
}

func TestCanWriteFile(t *testing.T) {
	readOnly := AgentPermissions{FileAccess: ReadOnly, AllowPatterns: []string{"**/*.rs"}}
	assert.True(t, readOnly.CanReadFile("src/a.rs"))
	assert.False(t, readOnly.CanWriteFile("src/a.rs"))

	readWrite := AgentPermissions{
		FileAccess:    ReadWrite,
		AllowPatterns: []string{"**/*.go"},
		DenyPatterns:  []string{"vendor/**"},
	}
	assert.True(t, readWrite.CanWriteFile("pkg/util.go"))
	assert.False(t, readWrite.CanWriteFile("vendor/dep/dep.go"))
	assert.False(t, readWrite.CanWriteFile("README.md"))
}

func TestPatternMatchesBareFilename(t *testing.T) {
	perms := AgentPermissions{FileAccess: ReadOnly, AllowPatterns: []string{"**/*.go"}}
	assert.True(t, perms.CanReadFile("main.go"))
}

func TestToolAllowed(t *testing.T) {
	perms := AgentPermissions{AllowedTools: []string{"glob", "grep", "web*"}}

	assert.True(t, perms.ToolAllowed("glob"))
	assert.True(t, perms.ToolAllowed("grep"))
	assert.True(t, perms.ToolAllowed("webfetch"))
	assert.False(t, perms.ToolAllowed("bash"))

	empty := AgentPermissions{}
	assert.False(t, empty.ToolAllowed("glob"))
}

func TestIntersectNeverEscalates(t *testing.T) {
	sub := AgentPermissions{
		FileAccess:     ReadWrite,
		AllowPatterns:  []string{"**/*.go", "**/*.md"},
		ShellExecution: true,
		NetworkAccess:  true,
		AllowedTools:   []string{"glob", "grep", "webfetch"},
		MaxIterations:  20,
		CanDelegate:    true,
	}
	ceiling := AgentPermissions{
		FileAccess:    ReadOnly,
		AllowPatterns: []string{"**/*.go"},
		DenyPatterns:  []string{"**/secrets/**"},
		AllowedTools:  []string{"grep"},
		MaxIterations: 5,
	}

	eff := sub.Intersect(ceiling)

	assert.Equal(t, ReadOnly, eff.FileAccess)
	assert.False(t, eff.ShellExecution)
	assert.False(t, eff.NetworkAccess)
	assert.False(t, eff.CanDelegate)
	assert.Equal(t, 5, eff.MaxIterations)
	assert.Equal(t, []string{"grep"}, eff.AllowedTools)
	assert.True(t, eff.CanReadFile("pkg/a.go"))
	assert.False(t, eff.CanReadFile("docs/a.md"))
	assert.False(t, eff.CanReadFile("pkg/secrets/a.go"))
}

func TestIntersectDisjointAllowCollapsesToNoAccess(t *testing.T) {
	a := AgentPermissions{FileAccess: ReadWrite, AllowPatterns: []string{"**/*.go"}}
	b := AgentPermissions{FileAccess: ReadWrite, AllowPatterns: []string{"**/*.rs"}, MaxIterations: 5}

	eff := a.Intersect(b)
	assert.Equal(t, NoAccess, eff.FileAccess)
	assert.False(t, eff.CanReadFile("main.go"))
}

func TestIntersectEmptyAllowDefersToOtherSide(t *testing.T) {
	open := AgentPermissions{FileAccess: ReadOnly, MaxIterations: 10}
	scoped := AgentPermissions{FileAccess: ReadOnly, AllowPatterns: []string{"docs/**"}, MaxIterations: 10}

	eff := open.Intersect(scoped)
	require.Equal(t, []string{"docs/**"}, eff.AllowPatterns)
	assert.True(t, eff.CanReadFile("docs/guide.md"))
	assert.False(t, eff.CanReadFile("src/main.go"))
}

func TestDeniedError(t *testing.T) {
	err := &DeniedError{AgentID: "review", Operation: "write file", Detail: "src/a.rs"}
	assert.Contains(t, err.Error(), "review")
	assert.Contains(t, err.Error(), "write file")
	assert.True(t, IsDenied(err))
	assert.False(t, IsDenied(assert.AnError))
}

func TestDelegationError(t *testing.T) {
	err := &DelegationError{AgentID: "review", Target: "security"}
	assert.Contains(t, err.Error(), "delegation not allowed")
	assert.True(t, IsDelegationDenied(err))
	assert.False(t, IsDelegationDenied(assert.AnError))
}
