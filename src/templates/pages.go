package templates

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/monitor"
)

//go:embed pages/*
var pageFiles embed.FS

// PageConfig holds branding and copy for the admin pages from config.yaml
type PageConfig struct {
	Branding Branding `yaml:"branding"`

	Login struct {
		Title         string `yaml:"title"`
		UsernameLabel string `yaml:"username_label"`
		PasswordLabel string `yaml:"password_label"`
		ButtonText    string `yaml:"button_text"`
	} `yaml:"login"`

	Dashboard struct {
		Title                string `yaml:"title"`
		Welcome              string `yaml:"welcome"`
		SessionsLink         string `yaml:"sessions_link"`
		LogoutText           string `yaml:"logout_text"`
		LogoutAllText        string `yaml:"logout_all_text"`
		TerminatedSuperseded string `yaml:"terminated_superseded"`
		TerminatedInvalid    string `yaml:"terminated_invalid"`
	} `yaml:"dashboard"`

	Sessions struct {
		Title    string `yaml:"title"`
		Empty    string `yaml:"empty"`
		BackLink string `yaml:"back_link"`
	} `yaml:"sessions"`
}

// Branding is shared by every page
type Branding struct {
	Name    string `yaml:"name"`
	Tagline string `yaml:"tagline"`
}

// LoadPageConfig loads the page copy from the embedded config.yaml
func LoadPageConfig() (*PageConfig, error) {
	data, err := pageFiles.ReadFile("pages/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read page config: %w", err)
	}

	var config PageConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse page config: %w", err)
	}

	return &config, nil
}

// Load parses every embedded page; templates are named after their file (e.g. "dashboard.html")
func Load() (*template.Template, error) {
	tmpl, err := template.New("pages").ParseFS(pageFiles, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return tmpl, nil
}

// Paths are the routes the page scripts talk to
type Paths struct {
	LoginPath       string
	HomePath        string
	SessionsPath    string
	LoginAPI        string
	LogoutAPI       string
	LogoutAllAPI    string
	CheckSessionAPI string
}

// LoginData holds data for login.html
type LoginData struct {
	Paths
	Brand Branding
	Page  any
}

// DashboardData holds data for dashboard.html
type DashboardData struct {
	Paths
	Brand           Branding
	Page            any
	Username        string
	LastLoginAt     string
	PollIntervalMs  int64
	RedirectDelayMs int64
	// SupersededReason is the check-session reason that means a newer login won
	SupersededReason string
}

// SessionsData holds data for sessions.html
type SessionsData struct {
	Paths
	Brand    Branding
	Page     any
	Username string
	Events   []models.LoginEvent
}

// NewLoginData builds the login page model
func (pc *PageConfig) NewLoginData(paths Paths) LoginData {
	return LoginData{Paths: paths, Brand: pc.Branding, Page: pc.Login}
}

// NewDashboardData builds the dashboard model; the poller uses interval and redirectDelay
func (pc *PageConfig) NewDashboardData(paths Paths, username string, lastLogin *time.Time, interval, redirectDelay time.Duration) DashboardData {
	data := DashboardData{
		Paths:           paths,
		Brand:           pc.Branding,
		Page:            pc.Dashboard,
		Username:        username,
		PollIntervalMs:  interval.Milliseconds(),
		RedirectDelayMs: redirectDelay.Milliseconds(),

		SupersededReason: monitor.ServerReasonSuperseded,
	}
	if lastLogin != nil {
		data.LastLoginAt = lastLogin.UTC().Format(time.RFC1123)
	}
	return data
}

// NewSessionsData builds the session history model
func (pc *PageConfig) NewSessionsData(paths Paths, username string, events []models.LoginEvent) SessionsData {
	return SessionsData{Paths: paths, Brand: pc.Branding, Page: pc.Sessions, Username: username, Events: events}
}
