package selector

import (
	"strings"

	"manifest-agent/internal/domain/entity"
)

// Config holds the tunable thresholds of the builder. The defaults mirror
// what the guidance runtime was calibrated against.
type Config struct {
	// MaxTextLen is the longest normalized text still usable as a text
	// strategy value.
	MaxTextLen int
	// MaxClasses caps how many specific-looking classes a css strategy
	// combines.
	MaxClasses int
}

func DefaultConfig() Config {
	return Config{
		MaxTextLen: 50,
		MaxClasses: 2,
	}
}

// textStrategyTags are the tags for which a text strategy carries a tag
// filter. Other tags match by text alone.
var textStrategyTags = map[string]struct{}{
	"button": {},
	"a":      {},
	"span":   {},
	"div":    {},
	"label":  {},
}

// Build returns the fallback-ordered selector for an element using default
// thresholds.
func Build(el entity.ElementSnapshot) entity.Selector {
	return BuildWith(DefaultConfig(), el)
}

// BuildWith assembles selector strategies in priority order: testId, xpath,
// aria label, id css, class css, text. All matching strategies are appended
// so they degrade gracefully at use time. The result is never empty: when
// nothing else matches, a bare tag css strategy is synthesized.
func BuildWith(cfg Config, el entity.ElementSnapshot) entity.Selector {
	var strategies []entity.SelectorStrategy

	if v := el.Attributes["data-testid"]; v != "" {
		strategies = append(strategies, entity.SelectorStrategy{Type: entity.StrategyTestID, Value: v})
	}

	if el.XPath != "" {
		strategies = append(strategies, entity.SelectorStrategy{Type: entity.StrategyXPath, Value: el.XPath})
	}

	if v := el.Attributes["aria-label"]; v != "" {
		strategies = append(strategies, entity.SelectorStrategy{Type: entity.StrategyAria, Value: v})
	}

	if v := el.Attributes["id"]; v != "" {
		strategies = append(strategies, entity.SelectorStrategy{Type: entity.StrategyCSS, Value: "#" + v})
	}

	if v := classSelector(cfg, el); v != "" {
		strategies = append(strategies, entity.SelectorStrategy{Type: entity.StrategyCSS, Value: v})
	}

	text := normalizeText(el.Text)
	if text != "" && len(text) < cfg.MaxTextLen {
		s := entity.SelectorStrategy{Type: entity.StrategyText, Value: text}
		if _, ok := textStrategyTags[el.Tag]; ok {
			s.Tag = el.Tag
		}
		strategies = append(strategies, s)
	}

	if len(strategies) == 0 {
		tag := el.Tag
		if tag == "" {
			tag = "div"
		}
		strategies = append(strategies, entity.SelectorStrategy{Type: entity.StrategyCSS, Value: tag})
	}

	return entity.Selector{Strategies: strategies}
}

// classSelector combines the tag with up to MaxClasses specific-looking
// classes. Short, hyphen-free class names are treated as generic utility
// classes and skipped.
func classSelector(cfg Config, el entity.ElementSnapshot) string {
	raw := el.Attributes["class"]
	if raw == "" {
		return ""
	}

	var specific []string
	for _, c := range strings.Fields(raw) {
		if len(c) > 5 || strings.Contains(c, "-") {
			specific = append(specific, c)
			if len(specific) == cfg.MaxClasses {
				break
			}
		}
	}
	if len(specific) == 0 {
		return ""
	}

	return el.Tag + "." + strings.Join(specific, ".")
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
