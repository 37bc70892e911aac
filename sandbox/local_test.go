package sandbox

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"bugscope/models"
)

func bootedEngine(t *testing.T) *LocalEngine {
	t.Helper()
	engine := NewLocalEngine()
	if err := engine.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	t.Cleanup(func() { engine.Teardown() })
	return engine
}

func TestLocalEngine_MountAndReadBack(t *testing.T) {
	engine := bootedEngine(t)
	ctx := context.Background()

	tree := models.BuildFileTree([]models.CodeFile{
		{Path: "index.js", Content: "main"},
		{Path: "src/lib/util.js", Content: "util"},
	})
	if err := engine.Mount(ctx, tree); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	content, err := engine.ReadFile("src/lib/util.js")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if content != "util" {
		t.Errorf("unexpected content: %q", content)
	}

	paths, err := engine.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	sort.Strings(paths)
	want := []string{"index.js", "src/lib/util.js"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("unexpected paths: %v", paths)
	}
}

func TestLocalEngine_ReadFileNotFound(t *testing.T) {
	engine := bootedEngine(t)

	var notFound *FileNotFoundError
	if _, err := engine.ReadFile("missing.js"); !errors.As(err, &notFound) {
		t.Fatalf("expected *FileNotFoundError, got %v", err)
	}
}

func TestLocalEngine_NeutralizesPathTraversal(t *testing.T) {
	engine := bootedEngine(t)
	ctx := context.Background()

	// Clean("/"+path) pins traversal inside the sandbox root, so this lands
	// on a safe in-sandbox path rather than the host filesystem.
	if err := engine.WriteFile(ctx, "../../etc/passwd", "x"); err != nil {
		t.Fatalf("expected traversal to be neutralized, got %v", err)
	}
	if _, err := engine.ReadFile("etc/passwd"); err != nil {
		t.Errorf("expected traversal write to land inside the sandbox: %v", err)
	}
}

func TestLocalEngine_BootTwiceFails(t *testing.T) {
	engine := bootedEngine(t)

	if err := engine.Boot(context.Background()); err == nil {
		t.Fatal("expected second Boot to fail")
	}
}

func TestLocalEngine_SpawnDetectsReadyURL(t *testing.T) {
	engine := bootedEngine(t)
	ctx := context.Background()

	proc, err := engine.Spawn(ctx, `echo "Server running at http://localhost:3000/"`)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer proc.Kill()

	select {
	case signal := <-proc.Ready():
		if signal.Port != 3000 {
			t.Errorf("expected port 3000, got %d", signal.Port)
		}
		if signal.URL != "http://localhost:3000/" {
			t.Errorf("unexpected URL: %q", signal.URL)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ready signal")
	}
}

func TestLocalEngine_SpawnStreamsOutput(t *testing.T) {
	engine := bootedEngine(t)
	ctx := context.Background()

	proc, err := engine.Spawn(ctx, `echo one; echo two`)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	var lines []string
	deadline := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-proc.Output():
			if !ok {
				if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
					t.Errorf("unexpected output: %v", lines)
				}
				return
			}
			lines = append(lines, line)
		case <-deadline:
			t.Fatalf("timed out, collected %v", lines)
		}
	}
}

func TestLocalEngine_CustomReadyPattern(t *testing.T) {
	engine, err := NewLocalEngineWithPattern(`ready on port (\d+)`)
	if err != nil {
		t.Fatalf("NewLocalEngineWithPattern failed: %v", err)
	}
	if err := engine.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	defer engine.Teardown()

	proc, err := engine.Spawn(context.Background(), `echo "ready on port 8080"`)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer proc.Kill()

	select {
	case signal := <-proc.Ready():
		if signal.Port != 8080 {
			t.Errorf("expected port 8080, got %d", signal.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ready signal")
	}
}

func TestNewLocalEngineWithPattern_Invalid(t *testing.T) {
	if _, err := NewLocalEngineWithPattern(`[unclosed`); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
