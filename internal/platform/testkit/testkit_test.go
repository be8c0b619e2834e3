package testkit

import (
	"path/filepath"
	"testing"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "alpha beta gamma", "beta")
}

func TestWriteFileReadFile(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested")
	p := WriteFile(t, dir, "runs-1.json", `{"workflow_runs":[]}`)
	if p != filepath.Join(dir, "runs-1.json") {
		t.Fatalf("unexpected path %q", p)
	}
	if got := ReadFile(t, p); got != `{"workflow_runs":[]}` {
		t.Fatalf("ReadFile = %q", got)
	}
}
