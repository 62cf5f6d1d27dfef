package success

import (
	"strings"

	"manifest-agent/internal/domain/entity"
)

// Infer derives a checkable post-condition for a canonical action, by
// strict precedence: URL change, then appeared elements, then modified
// elements, then the interaction itself as the success signal. The next
// action in sequence is accepted for future heuristics but unused today.
func Infer(action entity.CanonicalAction, next *entity.CanonicalAction) *entity.SuccessCondition {
	if action.URLAfter != "" && action.URLAfter != action.URLBefore {
		if path := pathAfterHost(action.URLAfter); path != "" {
			return &entity.SuccessCondition{URLContains: path}
		}
	}

	if diff := action.ResultingState; diff != nil {
		if cond := fromAdded(diff.Added); cond != nil {
			return cond
		}
		if cond := fromModified(diff.Modified); cond != nil {
			return cond
		}
	}

	switch action.Type {
	case entity.CanonClick, entity.CanonType, entity.CanonSelect:
		return &entity.SuccessCondition{Click: true}
	}
	return nil
}

// pathAfterHost returns "/rest" for "scheme://host/rest", empty when the
// URL has no path beyond the host.
func pathAfterHost(url string) string {
	rest := url
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.Index(rest, "/"); i >= 0 && i+1 < len(rest) {
		return "/" + rest[i+1:]
	}
	return ""
}

func fromAdded(added []entity.ElementSnapshot) *entity.SuccessCondition {
	if len(added) == 0 {
		return nil
	}

	for _, el := range added {
		if v := el.Attributes["data-testid"]; v != "" {
			return &entity.SuccessCondition{Visible: "[data-testid='" + v + "']"}
		}
		if v := el.Attributes["id"]; v != "" {
			return &entity.SuccessCondition{Visible: "#" + v}
		}
	}

	first := added[0]
	tag := first.Tag
	if tag == "" {
		tag = "div"
	}
	if classes := strings.Fields(first.Attributes["class"]); len(classes) > 0 {
		return &entity.SuccessCondition{Visible: tag + "." + classes[0]}
	}
	return &entity.SuccessCondition{Visible: tag}
}

func fromModified(modified []entity.ModifiedElement) *entity.SuccessCondition {
	for _, el := range modified {
		if v := el.Attributes["id"]; v != "" {
			sel := "#" + v
			if el.Changed == entity.ChangedClass {
				if classes := strings.Fields(el.Attributes["class"]); len(classes) > 0 {
					sel += "." + classes[len(classes)-1]
				}
			}
			return &entity.SuccessCondition{Visible: sel}
		}
		if v := el.Attributes["data-testid"]; v != "" {
			return &entity.SuccessCondition{Visible: "[data-testid='" + v + "']"}
		}
	}
	return nil
}
