package models

import (
	"fmt"
	"sort"
	"strings"
)

// Variable defines an environment variable.
type Variable struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ProjectConfig is the root bugscope-config.yml structure describing how to
// run a project inside the reproduction sandbox.
type ProjectConfig struct {
	Name            string     `json:"name" yaml:"name"`
	RepoURL         string     `json:"repo_url,omitempty" yaml:"repo_url,omitempty"`
	InstallCommand  string     `json:"install_command,omitempty" yaml:"install_command,omitempty"`
	StartCommand    string     `json:"start_command" yaml:"start_command"`
	ReadyPattern    string     `json:"ready_pattern,omitempty" yaml:"ready_pattern,omitempty"`
	EventStreamPath string     `json:"event_stream_path,omitempty" yaml:"event_stream_path,omitempty"`
	Variables       []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// EnvBlob renders the configured variables as newline-separated KEY=value
// pairs, the format the sandbox controller writes into the environment file.
func (c *ProjectConfig) EnvBlob() string {
	if len(c.Variables) == 0 {
		return ""
	}
	lines := make([]string, 0, len(c.Variables))
	for _, v := range c.Variables {
		lines = append(lines, fmt.Sprintf("%s=%s", v.Name, v.Value))
	}
	return strings.Join(lines, "\n")
}

// ParseEnvBlob parses a newline-separated KEY=value blob into variables.
// Blank lines and lines without '=' are skipped.
func ParseEnvBlob(blob string) []Variable {
	var vars []Variable
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok || name == "" {
			continue
		}
		vars = append(vars, Variable{Name: name, Value: value})
	}
	return vars
}

// SortedPaths returns the paths of a file set in lexical order. Display
// surfaces use this; the analysis payload preserves caller order instead.
func SortedPaths(files []CodeFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}
