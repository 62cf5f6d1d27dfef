package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"manifest-agent/internal/di"
	"manifest-agent/internal/infrastructure/config"
	"manifest-agent/internal/infrastructure/env"
)

var (
	flagConfig   string
	flagURL      string
	flagTasks    string
	flagOutput   string
	flagDocs     string
	flagHeadless bool
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "clippi-agent",
		Short:         "Generate replayable UI guidance manifests by exploring a web app",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Explore the configured tasks and write a manifest",
		RunE:  runGenerate,
	}
	generate.Flags().StringVarP(&flagConfig, "config", "c", "", "JSON config file")
	generate.Flags().StringVar(&flagURL, "url", "", "base URL of the application")
	generate.Flags().StringVar(&flagTasks, "tasks", "", "tasks file (one per line, or JSON)")
	generate.Flags().StringVarP(&flagOutput, "output", "o", config.DefaultOutputPath, "manifest output path")
	generate.Flags().StringVar(&flagDocs, "docs", "", "documentation file passed to the agent as context")
	generate.Flags().BoolVar(&flagHeadless, "headless", true, "run the browser headless")
	generate.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rebuild := &cobra.Command{
		Use:   "rebuild <flows-file>",
		Short: "Reassemble a manifest from a recorded flows file without exploring",
		Args:  cobra.ExactArgs(1),
		RunE:  runRebuild,
	}
	rebuild.Flags().StringVarP(&flagConfig, "config", "c", "", "JSON config file")
	rebuild.Flags().StringVar(&flagURL, "url", "", "base URL, used for manifest metadata")
	rebuild.Flags().StringVarP(&flagOutput, "output", "o", config.DefaultOutputPath, "manifest output path")
	rebuild.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(generate, rebuild)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadAppConfig() (*config.AppConfig, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	if flagURL == "" || flagTasks == "" {
		return nil, fmt.Errorf("either --config or both --url and --tasks are required")
	}
	cfg, err := config.New(flagURL, flagTasks, flagOutput)
	if err != nil {
		return nil, err
	}
	cfg.Headless = flagHeadless
	if flagDocs != "" {
		docs, err := os.ReadFile(flagDocs)
		if err != nil {
			return nil, fmt.Errorf("failed to read docs file: %w", err)
		}
		cfg.DocsContext = string(docs)
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	envService := env.NewEnvService()

	appCfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	model := appCfg.Model
	if model == "" {
		model = envService.GetDefault("OPENROUTER_MODEL_NAME", "openai/gpt-4o-mini")
	}

	container, err := di.NewContainer(di.Config{
		App:              appCfg,
		OpenRouterAPIKey: envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:  model,
		Verbose:          flagVerbose,
	})
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest, err := container.Generator.Generate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Manifest written to %s (%d targets)\n", appCfg.OutputPath, len(manifest.Targets))
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	var appCfg *config.AppConfig
	if flagConfig != "" {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		appCfg = cfg
	} else {
		// Rebuilds need no tasks, only metadata and the output path.
		appCfg = &config.AppConfig{
			URL:        flagURL,
			Provider:   config.DefaultProvider,
			TimeoutMS:  config.DefaultTimeoutMS,
			OutputPath: flagOutput,
		}
	}

	container, err := di.NewRebuildContainer(appCfg, flagVerbose)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest, err := container.Generator.Rebuild(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Manifest rebuilt to %s (%d targets)\n", appCfg.OutputPath, len(manifest.Targets))
	return nil
}
