package generator

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"manifest-agent/internal/application/port/input"
	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
	"manifest-agent/internal/usecase/assemble"
	"manifest-agent/internal/usecase/canonical"
	"manifest-agent/internal/usecase/domdiff"
	"manifest-agent/internal/usecase/reconcile"
)

// Config carries the batch-level settings of one generation run.
type Config struct {
	AppName   string
	URL       string
	Provider  string
	TimeoutMS int
	Tasks     []entity.Task
}

// UseCase drives the whole pipeline: explore each task, canonicalize the
// trace, attach DOM diffs, reconcile to minimal steps, assemble targets,
// and checkpoint after every completed task.
type UseCase struct {
	cfg        Config
	explorer   output.ExplorerPort
	canon      *canonical.Canonicalizer
	differ     *domdiff.Differ
	reconciler *reconcile.Reconciler
	assembler  *assemble.Assembler
	store      output.ManifestStore
	logger     output.LoggerPort
	now        func() time.Time
}

var _ input.ManifestGenerator = (*UseCase)(nil)

func New(
	cfg Config,
	explorer output.ExplorerPort,
	canon *canonical.Canonicalizer,
	differ *domdiff.Differ,
	reconciler *reconcile.Reconciler,
	assembler *assemble.Assembler,
	store output.ManifestStore,
	logger output.LoggerPort,
) *UseCase {
	return &UseCase{
		cfg:        cfg,
		explorer:   explorer,
		canon:      canon,
		differ:     differ,
		reconciler: reconciler,
		assembler:  assembler,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

func (u *UseCase) Generate(ctx context.Context) (*entity.Manifest, error) {
	targets, err := u.store.LoadPartial()
	if err != nil {
		if u.logger != nil {
			u.logger.Warn("Could not load checkpoint, starting fresh", "error", err)
		}
		targets = nil
	}
	// Checkpointed targets are matched back to tasks by description. Id
	// slugs cannot tell colliding tasks apart when one of them failed
	// before the interruption.
	resumed := make(map[string][]string, len(targets))
	for _, t := range targets {
		resumed[t.Description] = append(resumed[t.Description], t.ID)
	}
	u.assembler.SeedIDs(targets)

	total := len(u.cfg.Tasks)
	if u.logger != nil {
		u.logger.Info("Starting manifest generation",
			"tasks", total, "url", u.cfg.URL, "provider", u.cfg.Provider)
		if len(targets) > 0 {
			u.logger.Info("Resuming from checkpoint",
				"completed", len(targets), "remaining", total-len(targets))
		}
	}

	var (
		flows   []entity.RecordedFlow
		timings []entity.TaskTiming
		skipped int
		added   int
	)

	for i, task := range u.cfg.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation interrupted: %w", err)
		}

		if ids := resumed[task.Description]; len(ids) > 0 {
			resumed[task.Description] = ids[1:]
			skipped++
			if u.logger != nil {
				u.logger.Info("Skipping completed task",
					"task", task.Description, "id", ids[0], "progress", progress(i+1, total))
			}
			continue
		}

		if u.logger != nil {
			u.logger.Info("Exploring task", "task", task.Description, "progress", progress(i+1, total))
		}

		flow, timing := u.exploreTask(ctx, task)
		flows = append(flows, *flow)
		timings = append(timings, timing)

		if !flow.Success {
			if u.logger != nil {
				u.logger.Error("Task failed", "task", task.Description, "error", flow.Error)
			}
			continue
		}

		target := u.assembler.Target(flow)
		if target == nil {
			if u.logger != nil {
				u.logger.Warn("Flow succeeded but produced no steps", "task", task.Description)
			}
			continue
		}

		targets = append(targets, *target)
		added++

		if err := u.store.WritePartial(u.buildManifest(targets)); err != nil {
			return nil, fmt.Errorf("failed to checkpoint progress: %w", err)
		}
		if err := u.store.WriteFlows(flows); err != nil {
			if u.logger != nil {
				u.logger.Warn("Failed to persist recorded flows", "error", err)
			}
		}

		if u.logger != nil {
			u.logger.Info("Generated target",
				"id", target.ID, "steps", len(target.Path), "duration_ms", timing.TotalMS)
		}
	}

	u.logSummary(timings, added, total, skipped)

	manifest := u.buildManifest(targets)
	if err := u.store.WriteFinal(manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return manifest, nil
}

func (u *UseCase) Rebuild(ctx context.Context, flowsPath string) (*entity.Manifest, error) {
	flows, err := u.store.LoadFlows(flowsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded flows: %w", err)
	}

	if u.logger != nil {
		u.logger.Info("Rebuilding manifest from recorded flows",
			"path", flowsPath, "flows", len(flows))
	}

	var targets []entity.ManifestTarget
	for i := range flows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rebuild interrupted: %w", err)
		}
		flow := flows[i]
		if !flow.Success {
			if u.logger != nil {
				u.logger.Warn("Skipping failed flow", "task", flow.Task.Description, "error", flow.Error)
			}
			continue
		}
		if target := u.assembler.Target(&flow); target != nil {
			targets = append(targets, *target)
			if u.logger != nil {
				u.logger.Info("Rebuilt target", "id", target.ID, "steps", len(target.Path))
			}
		}
	}

	manifest := u.buildManifest(targets)
	if err := u.store.WriteFinal(manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return manifest, nil
}

// exploreTask runs one task end to end and never fails past its boundary:
// any error is recorded on the returned flow.
func (u *UseCase) exploreTask(ctx context.Context, task entity.Task) (*entity.RecordedFlow, entity.TaskTiming) {
	timing := entity.TaskTiming{TaskDescription: task.Description}
	flow := &entity.RecordedFlow{Task: task}
	start := u.now()

	trace, err := u.explorer.Explore(ctx, task)
	timing.ExplorationMS = u.sinceMS(start)
	if err != nil {
		flow.Error = err.Error()
		timing.TotalMS = u.sinceMS(start)
		flow.DurationMS = timing.TotalMS
		return flow, timing
	}

	extractStart := u.now()
	flow.Actions = u.canon.Canonicalize(trace)
	u.differ.Attach(flow.Actions, trace)
	timing.ExtractionMS = u.sinceMS(extractStart)

	reduceStart := u.now()
	flow.Reconciled = u.reconciler.Reconcile(ctx, task, flow.Actions)
	timing.ReductionMS = u.sinceMS(reduceStart)

	flow.Success = true
	timing.TotalMS = u.sinceMS(start)
	flow.DurationMS = timing.TotalMS
	return flow, timing
}

func (u *UseCase) buildManifest(targets []entity.ManifestTarget) *entity.Manifest {
	appName := u.cfg.AppName
	if appName == "" {
		appName = inferAppName(u.cfg.URL)
	}
	return &entity.Manifest{
		Schema: entity.ManifestSchemaURI,
		Meta: entity.ManifestMeta{
			AppName:     appName,
			GeneratedAt: u.now().UTC().Format(time.RFC3339),
			Generator:   "clippi-agent/" + u.cfg.Provider,
		},
		Defaults: entity.ManifestDefaults{TimeoutMS: u.cfg.TimeoutMS},
		Targets:  targets,
	}
}

func (u *UseCase) logSummary(timings []entity.TaskTiming, generated, total, skipped int) {
	if u.logger == nil {
		return
	}
	var totalMS float64
	for _, t := range timings {
		totalMS += t.TotalMS
		u.logger.Debug("Task timing",
			"task", t.TaskDescription,
			"total_ms", t.TotalMS,
			"exploration_ms", t.ExplorationMS,
			"extraction_ms", t.ExtractionMS,
			"reduction_ms", t.ReductionMS)
	}

	u.logger.Info("Manifest generation finished",
		"targets", generated, "skipped", skipped, "total_ms", totalMS)

	attempted := total - skipped
	if generated == 0 && attempted > 0 {
		u.logger.Warn("No targets were generated", "attempted", attempted, "url", u.cfg.URL)
	} else if generated < attempted {
		u.logger.Warn("Partial success", "failed", attempted-generated, "attempted", attempted)
	}
}

func (u *UseCase) sinceMS(start time.Time) float64 {
	return float64(u.now().Sub(start)) / float64(time.Millisecond)
}

func progress(current, total int) string {
	return fmt.Sprintf("%d/%d", current, total)
}

// inferAppName guesses a display name from the target URL host.
func inferAppName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "MyApp"
	}
	host := parsed.Hostname()
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ".com")
	host = strings.TrimSuffix(host, ".io")

	parts := strings.Split(host, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}
