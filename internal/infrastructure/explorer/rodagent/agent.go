package rodagent

import (
	"context"
	"encoding/json"
	"fmt"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
	"manifest-agent/internal/infrastructure/prompts"
)

// browserSession is what the exploration loop needs from a browser. The
// rod Session is the real implementation.
type browserSession interface {
	Navigate(url string) error
	Snapshot() (entity.DOMSnapshot, error)
	Element(index int) (entity.ElementSnapshot, bool)
	ClickIndex(index int) error
	FillIndex(index int, text string) error
	SelectIndex(index int, value string) error
	Scroll(direction string) error
	ReadContent() (string, error)
	ScreenshotFile() (string, error)
	Evaluate(js string) (string, error)
	Wait(seconds float64)
	CurrentURL() string
	Close()
}

type Config struct {
	URL         string
	DocsContext string
	MaxSteps    int
	Temperature float32
	Session     SessionConfig
}

func DefaultConfig(url string) Config {
	return Config{
		URL:      url,
		MaxSteps: 10,
		Session:  DefaultSessionConfig(),
	}
}

// Explorer drives a browser session with tool-calling rounds until the
// model declares the task done. Each round records one trace step: the
// snapshot taken before the model acted plus the actions it issued.
type Explorer struct {
	llm        output.LLMPort
	cfg        Config
	logger     output.LoggerPort
	newSession func() (browserSession, error)
}

var _ output.ExplorerPort = (*Explorer)(nil)

func New(llm output.LLMPort, cfg Config, logger output.LoggerPort) *Explorer {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	e := &Explorer{llm: llm, cfg: cfg, logger: logger}
	e.newSession = func() (browserSession, error) {
		return NewSession(cfg.Session)
	}
	return e
}

func (e *Explorer) Close() {}

func (e *Explorer) Explore(ctx context.Context, task entity.Task) (*entity.Trace, error) {
	session, err := e.newSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(e.cfg.URL); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.cfg.URL, err)
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: prompts.ExplorerPrompt},
		{Role: entity.RoleUser, Content: prompts.BuildTaskPrompt(e.cfg.URL, task.Description, e.cfg.DocsContext)},
	}

	trace := &entity.Trace{}

	for step := 0; step < e.cfg.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("exploration interrupted: %w", err)
		}

		snapshot, err := session.Snapshot()
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("Snapshot failed", "error", err)
			}
			snapshot = nil
		}
		messages = append(messages, entity.Message{
			Role:    entity.RoleUser,
			Content: stateMessage(session.CurrentURL(), snapshot),
		})

		resp, err := e.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefinitions(),
			Temperature: e.cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("exploration model call failed: %w", err)
		}
		messages = append(messages, resp.Message)

		traceStep := entity.TraceStep{Snapshot: snapshot}

		if len(resp.Message.ToolCalls) == 0 {
			trace.Steps = append(trace.Steps, traceStep)
			messages = append(messages, entity.Message{
				Role:    entity.RoleUser,
				Content: "Use the provided tools to act, or call done when the task is finished.",
			})
			continue
		}

		for _, tc := range resp.Message.ToolCalls {
			params := parseArguments(tc.Arguments)

			if tc.Name == toolDone {
				traceStep.Actions = append(traceStep.Actions, entity.RawAction{
					Name:   tc.Name,
					Params: params,
				})
				trace.Steps = append(trace.Steps, traceStep)

				if success, _ := params["success"].(bool); success {
					return trace, nil
				}
				reason, _ := params["reason"].(string)
				if reason == "" {
					reason = "no reason given"
				}
				return nil, fmt.Errorf("agent gave up: %s", reason)
			}

			// Resolve the element before acting, the snapshot index map
			// is rebuilt on the next round.
			var element *entity.ElementSnapshot
			if index, ok := paramIndex(params); ok {
				if meta, found := session.Element(index); found {
					element = &meta
				}
			}

			urlBefore := session.CurrentURL()
			result, execErr := execute(session, tc.Name, params)
			urlAfter := session.CurrentURL()

			raw := entity.RawAction{
				Name:      tc.Name,
				Params:    params,
				Element:   element,
				URLBefore: urlBefore,
				URLAfter:  urlAfter,
			}

			var reply string
			if execErr != nil {
				reply = "Error: " + execErr.Error()
				raw.Result = reply
				if e.logger != nil {
					e.logger.Warn("Tool failed", "tool", tc.Name, "error", execErr)
				}
			} else {
				reply = result
				// Evaluate results carry the JSON element descriptor the
				// canonicalizer parses; they must be recorded whole.
				if tc.Name == toolEvaluate {
					raw.Result = result
				} else {
					raw.Result = truncateResult(result)
				}
				if e.logger != nil {
					e.logger.Debug("Tool executed", "tool", tc.Name, "url", urlAfter)
				}
			}
			traceStep.Actions = append(traceStep.Actions, raw)

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				Content:    reply,
				ToolCallID: tc.ID,
				Name:       tc.Name,
			})
		}

		trace.Steps = append(trace.Steps, traceStep)
	}

	return nil, fmt.Errorf("task not finished within %d steps", e.cfg.MaxSteps)
}

func stateMessage(url string, snapshot entity.DOMSnapshot) string {
	if len(snapshot) == 0 {
		return fmt.Sprintf("Current URL: %s\nNo interactive elements found.", url)
	}
	return fmt.Sprintf("Current URL: %s\nInteractive elements:\n%s", url, FormatElements(snapshot))
}

func parseArguments(arguments string) map[string]any {
	params := make(map[string]any)
	if arguments != "" {
		_ = json.Unmarshal([]byte(arguments), &params)
	}
	return params
}

// truncateResult keeps the recorded result short; the full text still goes
// back to the model.
func truncateResult(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
