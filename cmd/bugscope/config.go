package main

import (
	"fmt"
	"os"
	"strconv"

	bugscope "bugscope"
	"bugscope/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

type ConfigModel struct {
	client    *bugscope.Client
	store     *store.Store
	apiKey    string
	baseURL   string
	simulated bool
	dbType    string
	storeErr  error
}

func NewConfigModel() ConfigModel {
	// Load .env file
	godotenv.Load()

	apiKey := os.Getenv("BUGSCOPE_API_KEY")
	baseURL := os.Getenv("BUGSCOPE_BASE_URL")
	simulated := os.Getenv("BUGSCOPE_SIMULATED") == "1"

	var opts []bugscope.ClientOption
	if baseURL != "" {
		opts = append(opts, bugscope.WithBaseURL(baseURL))
	}
	if simulated {
		opts = append(opts, bugscope.WithSimulatedAnalysis())
	}

	var client *bugscope.Client
	if apiKey != "" {
		client = bugscope.NewClient(apiKey, opts...)
	}

	var dbStore *store.Store
	var storeErr error
	dbCfg, selfHosted := storeConfigFromEnv()
	if selfHosted {
		dbStore, storeErr = store.Open(dbCfg)
		if storeErr != nil {
			logDebug("Failed to open direct bug store: %v", storeErr)
		}
	}

	return ConfigModel{
		client:    client,
		store:     dbStore,
		apiKey:    apiKey,
		baseURL:   baseURL,
		simulated: simulated,
		dbType:    dbCfg.DBType,
		storeErr:  storeErr,
	}
}

// storeConfigFromEnv reads the self-hosted database settings. Setting
// BUGSCOPE_DB_TYPE enables the direct bug store; accepted results are then
// written to the database instead of through the API.
func storeConfigFromEnv() (store.Config, bool) {
	dbType := os.Getenv("BUGSCOPE_DB_TYPE")
	if dbType == "" {
		return store.Config{}, false
	}
	port, _ := strconv.Atoi(os.Getenv("BUGSCOPE_DB_PORT"))
	return store.Config{
		DBType:   dbType,
		Host:     os.Getenv("BUGSCOPE_DB_HOST"),
		Port:     port,
		User:     os.Getenv("BUGSCOPE_DB_USER"),
		Password: os.Getenv("BUGSCOPE_DB_PASSWORD"),
		Database: os.Getenv("BUGSCOPE_DB_NAME"),
	}, true
}

func (m ConfigModel) Init() tea.Cmd {
	return nil
}

func (m ConfigModel) Update(msg tea.Msg) (ConfigModel, tea.Cmd) {
	return m, nil
}

func (m ConfigModel) View() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7D56F4")).
		Bold(true).
		Width(14)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#CCCCCC"))

	masked := "(not set)"
	if m.apiKey != "" {
		if len(m.apiKey) > 8 {
			masked = m.apiKey[:4] + "..." + m.apiKey[len(m.apiKey)-4:]
		} else {
			masked = "****"
		}
	}

	baseURL := m.baseURL
	if baseURL == "" && m.client != nil {
		baseURL = m.client.GetBaseURL()
	}

	mode := "live"
	if m.simulated {
		mode = "simulated"
	}

	storeMode := "api"
	if m.store != nil {
		storeMode = fmt.Sprintf("direct (%s)", m.dbType)
	} else if m.storeErr != nil {
		storeMode = fmt.Sprintf("direct (%s, unavailable: %v)", m.dbType, m.storeErr)
	}

	s := "\nConfiguration\n\n"
	s += fmt.Sprintf("%s %s\n", labelStyle.Render("API Key:"), valueStyle.Render(masked))
	s += fmt.Sprintf("%s %s\n", labelStyle.Render("Base URL:"), valueStyle.Render(baseURL))
	s += fmt.Sprintf("%s %s\n", labelStyle.Render("Analysis:"), valueStyle.Render(mode))
	s += fmt.Sprintf("%s %s\n", labelStyle.Render("Bug store:"), valueStyle.Render(storeMode))
	s += "\nPress q or esc to go back\n"
	return s
}
