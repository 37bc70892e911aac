package sandbox

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"bugscope/models"
)

// defaultReadyPattern matches the URL a dev server prints once it is
// listening. The port capture group feeds the ready signal.
var defaultReadyPattern = regexp.MustCompile(`https?://(?:localhost|127\.0\.0\.1|0\.0\.0\.0):(\d+)\S*`)

// LocalEngine runs the project inside a throwaway directory on the host,
// spawning the start command through the shell and scanning its output for
// the listening URL. It is the concrete Engine used by the CLI.
type LocalEngine struct {
	dir          string
	readyPattern *regexp.Regexp
}

// NewLocalEngine creates an engine with the default ready-URL detection.
func NewLocalEngine() *LocalEngine {
	return &LocalEngine{readyPattern: defaultReadyPattern}
}

// NewLocalEngineWithPattern overrides ready detection with a project-specific
// pattern (the ready_pattern field of bugscope-config.yml). The pattern's
// first capture group, if any, is parsed as the port.
func NewLocalEngineWithPattern(pattern string) (*LocalEngine, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid ready pattern: %w", err)
	}
	return &LocalEngine{readyPattern: re}, nil
}

func (e *LocalEngine) Boot(ctx context.Context) error {
	if e.dir != "" {
		return errors.New("engine already booted")
	}
	dir, err := os.MkdirTemp("", "bugscope-sandbox-")
	if err != nil {
		return err
	}
	e.dir = dir
	return nil
}

func (e *LocalEngine) Mount(ctx context.Context, tree models.FileTree) error {
	if e.dir == "" {
		return errors.New("engine not booted")
	}
	return tree.Walk(func(path, content string) error {
		return e.WriteFile(ctx, path, content)
	})
}

func (e *LocalEngine) WriteFile(ctx context.Context, path, content string) error {
	full, err := e.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0644)
}

func (e *LocalEngine) Spawn(ctx context.Context, command string) (Process, error) {
	if e.dir == "" {
		return nil, errors.New("engine not booted")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = e.dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	proc := &localProcess{
		cmd:    cmd,
		output: make(chan string, 256),
		ready:  make(chan ReadySignal, 1),
	}
	go proc.run(stdout, stderr, e.readyPattern)
	return proc, nil
}

func (e *LocalEngine) ReadFile(path string) (string, error) {
	full, err := e.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &FileNotFoundError{Path: path}
		}
		return "", err
	}
	return string(data), nil
}

func (e *LocalEngine) ListFiles() ([]string, error) {
	if e.dir == "" {
		return nil, errors.New("engine not booted")
	}
	var paths []string
	err := filepath.WalkDir(e.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *LocalEngine) Teardown() error {
	if e.dir == "" {
		return nil
	}
	err := os.RemoveAll(e.dir)
	e.dir = ""
	return err
}

// resolve maps a sandbox-relative path onto the host directory, rejecting
// escapes.
func (e *LocalEngine) resolve(path string) (string, error) {
	if e.dir == "" {
		return "", errors.New("engine not booted")
	}
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(e.dir, clean)
	if !strings.HasPrefix(full, e.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the sandbox", path)
	}
	return full, nil
}

type localProcess struct {
	cmd    *exec.Cmd
	output chan string
	ready  chan ReadySignal

	readyOnce sync.Once
	killOnce  sync.Once
}

func (p *localProcess) Output() <-chan string     { return p.output }
func (p *localProcess) Ready() <-chan ReadySignal { return p.ready }

func (p *localProcess) Kill() error {
	var err error
	p.killOnce.Do(func() {
		if p.cmd.Process != nil {
			err = p.cmd.Process.Kill()
		}
		go p.cmd.Wait()
	})
	return err
}

// run merges stdout and stderr into the output channel in emission order per
// stream and watches for the ready URL. Channels close when both streams end.
func (p *localProcess) run(stdout, stderr io.Reader, readyPattern *regexp.Regexp) {
	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			p.output <- line

			if match := readyPattern.FindStringSubmatch(line); match != nil {
				port := 0
				if len(match) > 1 {
					port, _ = strconv.Atoi(match[1])
				}
				p.readyOnce.Do(func() {
					p.ready <- ReadySignal{Port: port, URL: match[0]}
				})
			}
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	close(p.output)
	close(p.ready)
}
