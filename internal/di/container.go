package di

import (
	"fmt"

	"manifest-agent/internal/application/port/input"
	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/infrastructure/checkpoint"
	"manifest-agent/internal/infrastructure/config"
	"manifest-agent/internal/infrastructure/explorer/rodagent"
	"manifest-agent/internal/infrastructure/llm/openrouter"
	"manifest-agent/internal/infrastructure/logger"
	"manifest-agent/internal/usecase/assemble"
	"manifest-agent/internal/usecase/canonical"
	"manifest-agent/internal/usecase/domdiff"
	"manifest-agent/internal/usecase/generator"
	"manifest-agent/internal/usecase/reconcile"
	"manifest-agent/internal/usecase/selector"
)

type Container struct {
	Generator input.ManifestGenerator
	Logger    output.LoggerPort

	explorer output.ExplorerPort
}

type Config struct {
	App              *config.AppConfig
	OpenRouterAPIKey string
	OpenRouterModel  string
	Verbose          bool
}

// NewContainer wires the full pipeline for a generation run: browser
// explorer, LLM reducer, checkpointed file store.
func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	if cfg.Verbose {
		llmCfg.Logger = log
	}
	llm := openrouter.NewOpenRouterAdapter(llmCfg)

	explorerCfg := rodagent.DefaultConfig(cfg.App.URL)
	explorerCfg.DocsContext = cfg.App.DocsContext
	explorerCfg.Session.Headless = cfg.App.Headless
	explorerCfg.Session.ViewportWidth = cfg.App.ViewportWidth
	explorerCfg.Session.ViewportHeight = cfg.App.ViewportHeight
	explorer := rodagent.New(llm, explorerCfg, log)

	reducer := reconcile.NewLLMReducer(llm, log)

	gen := generator.New(
		generatorConfig(cfg.App),
		explorer,
		canonical.New(log),
		domdiff.New(domdiff.DefaultConfig(), log),
		reconcile.New(reducer, log),
		assemble.New(selector.DefaultConfig(), log),
		checkpoint.NewFileStore(cfg.App.OutputPath, log),
		log,
	)

	return &Container{
		Generator: gen,
		Logger:    log,
		explorer:  explorer,
	}, nil
}

// NewRebuildContainer wires only what an offline rebuild needs: no
// browser, no LLM, no credentials.
func NewRebuildContainer(app *config.AppConfig, verbose bool) (*Container, error) {
	log, err := logger.NewLoggerAdapter(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	gen := generator.New(
		generatorConfig(app),
		nil,
		canonical.New(log),
		domdiff.New(domdiff.DefaultConfig(), log),
		reconcile.New(nil, log),
		assemble.New(selector.DefaultConfig(), log),
		checkpoint.NewFileStore(app.OutputPath, log),
		log,
	)

	return &Container{
		Generator: gen,
		Logger:    log,
	}, nil
}

func generatorConfig(app *config.AppConfig) generator.Config {
	return generator.Config{
		AppName:   app.AppName,
		URL:       app.URL,
		Provider:  app.Provider,
		TimeoutMS: app.TimeoutMS,
		Tasks:     app.Tasks,
	}
}

func (c *Container) Close() {
	if c.explorer != nil {
		c.explorer.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
