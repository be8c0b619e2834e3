package module

import (
	"context"
	"strings"
	"testing"
)

// runner mirrors the shape of a pipeline port
type runner interface {
	Run(ctx context.Context) (int, error)
}

type fixedRunner struct{ n int }

func (f fixedRunner) Run(context.Context) (int, error) { return f.n, nil }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string { return m.name }
func (m fakeModule) Ports() any   { return m.ports }

type bundle struct {
	Label  string
	Runner runner
}

func mustRun(t *testing.T, r runner) int {
	t.Helper()
	n, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return n
}

func TestPortsOf_NilPorts(t *testing.T) {
	if _, ok := PortsOf[runner](fakeModule{name: "empty"}); ok {
		t.Fatalf("expected ok=false when Ports() is nil")
	}
	var nilBundle *bundle
	if _, ok := PortsOf[runner](fakeModule{name: "nilptr", ports: nilBundle}); ok {
		t.Fatalf("expected ok=false for a nil bundle pointer")
	}
}

func TestPortsOf_DirectMatch(t *testing.T) {
	got, ok := PortsOf[runner](fakeModule{name: "direct", ports: runner(fixedRunner{n: 3})})
	if !ok {
		t.Fatalf("expected direct match")
	}
	if n := mustRun(t, got); n != 3 {
		t.Fatalf("Run() = %d", n)
	}
}

func TestPortsOf_BundleFields(t *testing.T) {
	type hidden struct {
		runner runner
	}

	got, ok := PortsOf[runner](fakeModule{name: "runs", ports: bundle{Label: "x", Runner: fixedRunner{n: 9}}})
	if !ok {
		t.Fatalf("exported field should be found")
	}
	if n := mustRun(t, got); n != 9 {
		t.Fatalf("Run() = %d", n)
	}

	got, ok = PortsOf[runner](fakeModule{name: "runs", ports: &bundle{Runner: fixedRunner{n: 4}}})
	if !ok || mustRun(t, got) != 4 {
		t.Fatalf("bundle behind a pointer should be walked")
	}

	if _, ok := PortsOf[runner](fakeModule{name: "hidden", ports: hidden{runner: fixedRunner{}}}); ok {
		t.Fatalf("unexported field must be ignored")
	}
}

func TestPortsOf_SkipsNilFields(t *testing.T) {
	type two struct {
		Primary  runner
		Fallback runner
	}
	got, ok := PortsOf[runner](fakeModule{name: "runs", ports: two{Fallback: fixedRunner{n: 7}}})
	if !ok {
		t.Fatalf("expected the non-nil field")
	}
	if n := mustRun(t, got); n != 7 {
		t.Fatalf("Run() = %d", n)
	}

	if _, ok := PortsOf[runner](fakeModule{name: "unset", ports: bundle{Label: "x"}}); ok {
		t.Fatalf("a nil interface field is not a port")
	}
}

func TestMustPortsOf_PanicNamesModuleAndPort(t *testing.T) {
	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "module runs") || !strings.Contains(msg, "module.runner") {
			t.Fatalf("panic message should name the module and port, got %q", msg)
		}
	}()
	_ = MustPortsOf[runner](fakeModule{name: "runs", ports: struct{ N int }{1}})
}
