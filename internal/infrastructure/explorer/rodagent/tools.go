package rodagent

import (
	"fmt"

	"manifest-agent/internal/domain/entity"
)

const (
	toolNavigate   = "navigate"
	toolClick      = "click_element"
	toolInput      = "input_text"
	toolSelect     = "select_dropdown_option"
	toolScroll     = "scroll"
	toolRead       = "read_content"
	toolScreenshot = "screenshot"
	toolWait       = "wait"
	toolEvaluate   = "evaluate"
	toolDone       = "done"
)

func toolDefinitions() []entity.ToolDefinition {
	indexProp := map[string]interface{}{
		"type":        "integer",
		"description": "Index of the element from the snapshot list",
	}

	return []entity.ToolDefinition{
		{
			Name:        toolNavigate,
			Description: "Navigate the browser to a URL",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{"type": "string"},
				},
				"required": []string{"url"},
			},
		},
		{
			Name:        toolClick,
			Description: "Click an interactive element by its snapshot index",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": indexProp,
				},
				"required": []string{"index"},
			},
		},
		{
			Name:        toolInput,
			Description: "Clear a field and type text into it",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": indexProp,
					"text":  map[string]interface{}{"type": "string"},
				},
				"required": []string{"index", "text"},
			},
		},
		{
			Name:        toolSelect,
			Description: "Choose a dropdown option by its visible text",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": indexProp,
					"value": map[string]interface{}{"type": "string"},
				},
				"required": []string{"index", "value"},
			},
		},
		{
			Name:        toolScroll,
			Description: "Scroll the page",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"direction": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "top", "bottom"},
					},
				},
				"required": []string{"direction"},
			},
		},
		{
			Name:        toolRead,
			Description: "Read the cleaned HTML of the current page",
			Parameters:  emptyParams(),
		},
		{
			Name:        toolScreenshot,
			Description: "Save a screenshot of the current viewport",
			Parameters:  emptyParams(),
		},
		{
			Name:        toolWait,
			Description: "Wait for the page to settle",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"seconds": map[string]interface{}{"type": "number"},
				},
			},
		},
		{
			Name:        toolEvaluate,
			Description: "Run a JavaScript expression on the page and return its JSON result",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"expression": map[string]interface{}{"type": "string"},
				},
				"required": []string{"expression"},
			},
		},
		{
			Name:        toolDone,
			Description: "Finish the task. Set success=false if the task could not be completed.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"success": map[string]interface{}{"type": "boolean"},
					"reason":  map[string]interface{}{"type": "string"},
				},
				"required": []string{"success"},
			},
		},
	}
}

func emptyParams() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// execute dispatches one tool call to the session and returns the text
// result reported back to the model.
func execute(session browserSession, name string, params map[string]any) (string, error) {
	switch name {
	case toolNavigate:
		url, _ := params["url"].(string)
		if err := session.Navigate(url); err != nil {
			return "", err
		}
		return fmt.Sprintf("Navigated to %s", session.CurrentURL()), nil

	case toolClick:
		index, ok := paramIndex(params)
		if !ok {
			return "", fmt.Errorf("click requires an index")
		}
		if err := session.ClickIndex(index); err != nil {
			return "", err
		}
		return fmt.Sprintf("Clicked element %d", index), nil

	case toolInput:
		index, ok := paramIndex(params)
		if !ok {
			return "", fmt.Errorf("input requires an index")
		}
		text, _ := params["text"].(string)
		if err := session.FillIndex(index, text); err != nil {
			return "", err
		}
		return fmt.Sprintf("Typed into element %d", index), nil

	case toolSelect:
		index, ok := paramIndex(params)
		if !ok {
			return "", fmt.Errorf("select requires an index")
		}
		value, _ := params["value"].(string)
		if err := session.SelectIndex(index, value); err != nil {
			return "", err
		}
		return fmt.Sprintf("Selected %q on element %d", value, index), nil

	case toolScroll:
		direction, _ := params["direction"].(string)
		if err := session.Scroll(direction); err != nil {
			return "", err
		}
		return "Scrolled " + direction, nil

	case toolRead:
		return session.ReadContent()

	case toolScreenshot:
		path, err := session.ScreenshotFile()
		if err != nil {
			return "", err
		}
		return "Screenshot saved to " + path, nil

	case toolWait:
		seconds, _ := params["seconds"].(float64)
		session.Wait(seconds)
		return "Waited", nil

	case toolEvaluate:
		expr, _ := params["expression"].(string)
		return session.Evaluate(expr)
	}

	return "", fmt.Errorf("unknown tool: %s", name)
}

func paramIndex(params map[string]any) (int, bool) {
	switch v := params["index"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
