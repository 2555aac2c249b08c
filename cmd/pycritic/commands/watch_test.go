package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainPendingSortsPaths(t *testing.T) {
	pending := map[string]struct{}{
		"src/zeta.py":  {},
		"alpha.py":     {},
		"src/beta.py":  {},
		"src/alpha.py": {},
	}
	got := drainPending(pending)
	assert.Equal(t, []string{"alpha.py", "src/alpha.py", "src/beta.py", "src/zeta.py"}, got)
}

func TestDrainPendingEmpty(t *testing.T) {
	assert.Empty(t, drainPending(map[string]struct{}{}))
}

func TestIsPythonPath(t *testing.T) {
	assert.True(t, isPythonPath("a/b/main.py"))
	assert.True(t, isPythonPath("gui.PYW"))
	assert.True(t, isPythonPath("stubs.pyi"))
	assert.False(t, isPythonPath("notes.txt"))
	assert.False(t, isPythonPath("pyproject.toml"))
}
