// Package main provides session file management utilities for the Bugscope CLI.
//
// This file implements functions to write and remove a .bugscope-session.yaml
// file in the current working directory when a sandbox session is started or
// stopped.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const sessionFilename = ".bugscope-session.yaml"

// SessionFileData represents the contents of .bugscope-session.yaml
type SessionFileData struct {
	BugID         string `yaml:"bug_id,omitempty"`
	ProjectName   string `yaml:"project_name"`
	URL           string `yaml:"url,omitempty"`
	StartCommand  string `yaml:"start_command"`
	ConfigPath    string `yaml:"config_path,omitempty"`
	StartedAt     string `yaml:"started_at"`
	ArchiveSource string `yaml:"archive_source,omitempty"`
}

// WriteSessionFile writes .bugscope-session.yaml to the current working directory
func WriteSessionFile(data SessionFileData) error {
	yamlData, err := yaml.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := os.WriteFile(sessionFilename, yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", sessionFilename, err)
	}

	return nil
}

// RemoveSessionFile removes .bugscope-session.yaml from the current working directory
func RemoveSessionFile() error {
	err := os.Remove(sessionFilename)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", sessionFilename, err)
	}
	return nil
}

// ReadSessionFile reads .bugscope-session.yaml from the current working directory
func ReadSessionFile() (*SessionFileData, error) {
	data, err := os.ReadFile(sessionFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sessionFilename, err)
	}

	var sessionData SessionFileData
	if err := yaml.Unmarshal(data, &sessionData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", sessionFilename, err)
	}

	return &sessionData, nil
}
