package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadInlineTasks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "agent.config.json", `{
		"url": "https://app.example.com",
		"app_name": "Example",
		"timeout_ms": 10000,
		"tasks": [
			"export data to CSV",
			{"description": "invite a teammate", "category": "collaboration"}
		]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com", cfg.URL)
	assert.Equal(t, "Example", cfg.AppName)
	assert.Equal(t, 10000, cfg.TimeoutMS)
	assert.True(t, cfg.Headless)
	assert.Equal(t, DefaultProvider, cfg.Provider)

	require.Len(t, cfg.Tasks, 2)
	assert.Equal(t, "export data to CSV", cfg.Tasks[0].Description)
	assert.Equal(t, "collaboration", cfg.Tasks[1].Category)

	// Relative output path resolves next to the config file.
	assert.Equal(t, filepath.Join(dir, DefaultOutputPath), cfg.OutputPath)
}

func TestLoadTasksFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tasks.txt", "first task\n\nsecond task\n")
	path := writeFile(t, dir, "agent.config.json", `{
		"url": "https://app.example.com",
		"tasks": "tasks.txt",
		"output_path": "out/manifest.json"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Tasks, 2)
	assert.Equal(t, "first task", cfg.Tasks[0].Description)
	assert.Equal(t, "second task", cfg.Tasks[1].Description)
	assert.Equal(t, filepath.Join(dir, "out/manifest.json"), cfg.OutputPath)
}

func TestLoadHeadlessFalse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "agent.config.json", `{
		"url": "https://app.example.com",
		"headless": false,
		"tasks": ["a task here"]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Headless)
}

func TestLoadDocsPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs.md", "Admin features live under Settings.")
	path := writeFile(t, dir, "agent.config.json", `{
		"url": "https://app.example.com",
		"docs_path": "docs.md",
		"tasks": ["a task here"]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Admin features live under Settings.", cfg.DocsContext)
}

func TestLoadRejectsMissingURL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "agent.config.json", `{"tasks": ["a task"]}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyTasks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "agent.config.json", `{"url": "https://x.dev"}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseTasksFileJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tasks.json", `[
		"plain task",
		{"description": "rich task", "id": "rich", "keywords": ["extra"]}
	]`)

	tasks, err := ParseTasksFile(path)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "plain task", tasks[0].Description)
	assert.Equal(t, "rich", tasks[1].ID)
	assert.Equal(t, []string{"extra"}, tasks[1].Keywords)
}

func TestNewFromFlags(t *testing.T) {
	dir := t.TempDir()
	tasksPath := writeFile(t, dir, "tasks.txt", "only task\n")

	cfg, err := New("https://app.example.com", tasksPath, "manifest.json")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutMS, cfg.TimeoutMS)
	assert.Equal(t, "manifest.json", cfg.OutputPath)
	require.Len(t, cfg.Tasks, 1)
}
