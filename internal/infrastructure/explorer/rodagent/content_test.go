package rodagent

import (
	"strings"
	"testing"
)

func TestCleanHTMLRemovesScriptStyle(t *testing.T) {
	raw := `
<body>
    <div id="main">Hello</div>
    <script>alert("hi")</script>
    <style>.x {}</style>
</body>`

	out := CleanHTML(raw, nil)

	if strings.Contains(out, "<script") || strings.Contains(out, "<style") {
		t.Errorf("script/style tags must be removed, output: %s", out)
	}
	if !strings.Contains(out, `id="main"`) {
		t.Error("expected to keep normal elements")
	}
}

func TestCleanHTMLRemovesComments(t *testing.T) {
	raw := `
<body>
    <!-- secret comment -->
    <div>Text</div>
</body>`

	out := CleanHTML(raw, nil)
	if strings.Contains(out, "secret comment") {
		t.Error("HTML comments must be removed")
	}
}

func TestCleanHTMLKeepsSelectorAttributes(t *testing.T) {
	raw := `
<body>
    <button data-testid="export-btn" aria-label="Export data" onclick="x()" data-reactid="77">Export</button>
</body>`

	out := CleanHTML(raw, nil)

	if !strings.Contains(out, `data-testid="export-btn"`) {
		t.Error("data-testid must be kept")
	}
	if !strings.Contains(out, `aria-label="Export data"`) {
		t.Error("aria-label must be kept")
	}
	if strings.Contains(out, "onclick") || strings.Contains(out, "data-reactid") {
		t.Errorf("event handlers and framework attributes must be dropped, output: %s", out)
	}
}

func TestCleanHTMLTruncates(t *testing.T) {
	raw := "<body><div>" + strings.Repeat("x", 500) + "</div></body>"

	out := CleanHTML(raw, &CleanConfig{MaxOutputSize: 100})
	if !strings.Contains(out, "truncated") {
		t.Error("oversized output must be truncated")
	}
	if len(out) > 150 {
		t.Errorf("output too long: %d", len(out))
	}
}
