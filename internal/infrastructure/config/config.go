package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"manifest-agent/internal/domain/entity"
)

const (
	DefaultProvider   = "openrouter"
	DefaultTimeoutMS  = 30000
	DefaultOutputPath = "guide.manifest.json"
	DefaultViewportW  = 1280
	DefaultViewportH  = 720
)

// AppConfig is the resolved run configuration: file values merged with
// defaults, tasks loaded, relative paths resolved against the config file.
type AppConfig struct {
	URL            string
	AppName        string
	Provider       string
	Model          string
	Headless       bool
	TimeoutMS      int
	ViewportWidth  int
	ViewportHeight int
	OutputPath     string
	DocsContext    string
	Tasks          []entity.Task
}

// fileConfig is the raw JSON shape. Tasks is either an inline array or a
// path to a tasks file; Headless is a pointer so absence defaults to true.
type fileConfig struct {
	URL            string          `json:"url"`
	AppName        string          `json:"app_name"`
	Provider       string          `json:"provider"`
	Model          string          `json:"model"`
	Headless       *bool           `json:"headless"`
	TimeoutMS      int             `json:"timeout_ms"`
	ViewportWidth  int             `json:"viewport_width"`
	ViewportHeight int             `json:"viewport_height"`
	OutputPath     string          `json:"output_path"`
	DocsContext    string          `json:"docs_context"`
	DocsPath       string          `json:"docs_path"`
	Tasks          json.RawMessage `json:"tasks"`
}

// Load reads and resolves a JSON config file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	dir := filepath.Dir(path)

	cfg := &AppConfig{
		URL:            raw.URL,
		AppName:        raw.AppName,
		Provider:       raw.Provider,
		Model:          raw.Model,
		Headless:       raw.Headless == nil || *raw.Headless,
		TimeoutMS:      raw.TimeoutMS,
		ViewportWidth:  raw.ViewportWidth,
		ViewportHeight: raw.ViewportHeight,
		OutputPath:     raw.OutputPath,
		DocsContext:    raw.DocsContext,
	}
	applyDefaults(cfg)

	if !filepath.IsAbs(cfg.OutputPath) {
		cfg.OutputPath = filepath.Join(dir, cfg.OutputPath)
	}

	if raw.DocsPath != "" && cfg.DocsContext == "" {
		docsPath := raw.DocsPath
		if !filepath.IsAbs(docsPath) {
			docsPath = filepath.Join(dir, docsPath)
		}
		docs, err := os.ReadFile(docsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read docs context: %w", err)
		}
		cfg.DocsContext = string(docs)
	}

	if len(raw.Tasks) > 0 {
		cfg.Tasks, err = parseTasksValue(raw.Tasks, dir)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New builds a config from flag-level values, bypassing a config file.
func New(url, tasksPath, outputPath string) (*AppConfig, error) {
	tasks, err := ParseTasksFile(tasksPath)
	if err != nil {
		return nil, err
	}
	cfg := &AppConfig{
		URL:        url,
		Tasks:      tasks,
		OutputPath: outputPath,
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.TimeoutMS == 0 {
		cfg.TimeoutMS = DefaultTimeoutMS
	}
	if cfg.ViewportWidth == 0 {
		cfg.ViewportWidth = DefaultViewportW
	}
	if cfg.ViewportHeight == 0 {
		cfg.ViewportHeight = DefaultViewportH
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
}

func (c *AppConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("config is missing url")
	}
	if len(c.Tasks) == 0 {
		return fmt.Errorf("config has no tasks")
	}
	return nil
}

// parseTasksValue handles the two accepted shapes of the tasks field: a
// file path string or an inline array of strings/objects.
func parseTasksValue(raw json.RawMessage, dir string) ([]entity.Task, error) {
	var path string
	if err := json.Unmarshal(raw, &path); err == nil {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return ParseTasksFile(path)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("tasks must be a file path or an array: %w", err)
	}
	return parseTaskItems(items)
}

// ParseTasksFile reads a tasks file: a JSON array of strings/objects, or
// plain text with one task per line.
func ParseTasksFile(path string) ([]entity.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks file: %w", err)
	}
	content := strings.TrimSpace(string(data))

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(content), &items); err == nil {
		return parseTaskItems(items)
	}

	var tasks []entity.Task
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tasks = append(tasks, entity.Task{Description: line})
	}
	return tasks, nil
}

func parseTaskItems(items []json.RawMessage) ([]entity.Task, error) {
	tasks := make([]entity.Task, 0, len(items))
	for i, item := range items {
		var desc string
		if err := json.Unmarshal(item, &desc); err == nil {
			tasks = append(tasks, entity.Task{Description: desc})
			continue
		}
		var task entity.Task
		if err := json.Unmarshal(item, &task); err != nil {
			return nil, fmt.Errorf("invalid task at index %d: %w", i, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
