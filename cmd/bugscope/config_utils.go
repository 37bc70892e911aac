package main

import (
	"os"
	"path/filepath"

	"bugscope/models"

	"gopkg.in/yaml.v3"
)

const projectConfigFilename = "bugscope-config.yml"

// ConfigExists checks if bugscope-config.yml exists in the current directory
func ConfigExists() bool {
	_, err := os.Stat(projectConfigFilename)
	return err == nil
}

// LoadProjectConfig loads and parses bugscope-config.yml from the current directory
func LoadProjectConfig() (*models.ProjectConfig, error) {
	data, err := os.ReadFile(projectConfigFilename)
	if err != nil {
		return nil, err
	}

	var config models.ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetProjectConfigDir returns the absolute directory path where bugscope-config.yml is located
func GetProjectConfigDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(cwd, projectConfigFilename)
	if _, err := os.Stat(configPath); err != nil {
		return "", err
	}

	return cwd, nil
}

// SaveProjectConfig saves a ProjectConfig to bugscope-config.yml in the current directory
func SaveProjectConfig(config *models.ProjectConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(projectConfigFilename, data, 0644)
}

// GetCurrentDir returns the current working directory
func GetCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Base(dir)
}
