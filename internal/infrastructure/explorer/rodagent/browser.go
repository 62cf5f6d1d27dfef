package rodagent

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"manifest-agent/internal/domain/entity"
)

type SessionConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	ScreenshotDir  string
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Headless:       true,
		Timeout:        10 * time.Second,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		ScreenshotDir:  "screenshots",
	}
}

// Session owns one browser for the duration of one task exploration. It
// tracks the interactive elements of the last snapshot by index so tool
// calls can refer to them.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	cfg      SessionConfig
	elements map[int]indexedElement
}

type indexedElement struct {
	el   *rod.Element
	meta entity.ElementSnapshot
}

func NewSession(cfg SessionConfig) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Delete("use-mock-keychain").
		Set("disable-web-security").
		Set("allow-running-insecure-content").
		Set("disable-setuid-sandbox")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		})
	}

	return &Session{
		browser:  browser,
		launcher: l,
		page:     page,
		cfg:      cfg,
		elements: make(map[int]indexedElement),
	}, nil
}

func (s *Session) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("page did not load: %w", err)
	}
	s.page.WaitIdle(5 * time.Second)
	return nil
}

func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// interactiveSelector lists everything worth indexing. Options are
// included even though they hide inside closed selects, dropdown choices
// resolve through them.
const interactiveSelector = `a, button, input, select, textarea, option, [role='button'], [aria-label]:not([aria-label=''])`

// Snapshot indexes the currently visible interactive elements and returns
// them keyed by xpath.
func (s *Session) Snapshot() (entity.DOMSnapshot, error) {
	els, err := s.page.Timeout(s.cfg.Timeout).Elements(interactiveSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}

	snapshot := make(entity.DOMSnapshot, len(els))
	s.elements = make(map[int]indexedElement, len(els))
	index := 0

	for _, el := range els {
		meta, ok := describeElement(el)
		if !ok {
			continue
		}
		if meta.Tag != "option" {
			if visible, err := el.Visible(); err != nil || !visible {
				continue
			}
		}

		meta.HighlightIndex = index
		snapshot[meta.XPath] = meta
		s.elements[index] = indexedElement{el: el, meta: meta}
		index++
	}
	return snapshot, nil
}

// Element returns the snapshot metadata recorded for an index.
func (s *Session) Element(index int) (entity.ElementSnapshot, bool) {
	ie, ok := s.elements[index]
	return ie.meta, ok
}

func (s *Session) ClickIndex(index int) error {
	ie, ok := s.elements[index]
	if !ok {
		return fmt.Errorf("no element with index %d, take a new snapshot", index)
	}
	if err := ie.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	s.page.WaitIdle(2 * time.Second)
	return nil
}

func (s *Session) FillIndex(index int, text string) error {
	ie, ok := s.elements[index]
	if !ok {
		return fmt.Errorf("no element with index %d, take a new snapshot", index)
	}
	if err := ie.el.SelectAllText(); err == nil {
		_ = ie.el.Input("")
	}
	if err := ie.el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (s *Session) SelectIndex(index int, value string) error {
	ie, ok := s.elements[index]
	if !ok {
		return fmt.Errorf("no element with index %d, take a new snapshot", index)
	}
	if err := ie.el.Select([]string{value}, true, rod.SelectorTypeText); err != nil {
		return fmt.Errorf("select failed: %w", err)
	}
	s.page.WaitIdle(2 * time.Second)
	return nil
}

func (s *Session) Scroll(direction string) error {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		s.page.Eval(`() => window.scrollBy(0, window.innerHeight * 2)`)
	case "up":
		s.page.Eval(`() => window.scrollBy(0, -window.innerHeight * 2)`)
	case "top":
		s.page.Eval(`() => window.scrollTo(0, 0)`)
	case "bottom":
		s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}
	s.page.WaitIdle(800 * time.Millisecond)
	return nil
}

// Wait sleeps then waits for the page to go idle. Seconds outside (0, 10]
// fall back to one.
func (s *Session) Wait(seconds float64) {
	if seconds <= 0 || seconds > 10 {
		seconds = 1
	}
	time.Sleep(time.Duration(seconds * float64(time.Second)))
	s.page.WaitIdle(2 * time.Second)
}

// ReadContent returns the page body cleaned down to what the model needs.
func (s *Session) ReadContent() (string, error) {
	body, err := s.page.Timeout(s.cfg.Timeout).Element("body")
	if err != nil {
		return "", fmt.Errorf("body not found: %w", err)
	}
	raw, err := body.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return CleanHTML(raw, nil), nil
}

// ScreenshotFile captures the viewport, downscales it, and writes it to
// the screenshot directory. Returns the file path.
func (s *Session) ScreenshotFile() (string, error) {
	imgBytes, err := s.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return "", fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(s.cfg.ScreenshotDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	path := filepath.Join(s.cfg.ScreenshotDir, time.Now().Format("20060102_150405.000")+".jpg")
	if err := imaging.Save(img, path, imaging.JPEGQuality(75)); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	return path, nil
}

// Evaluate runs a JS expression on the page and returns its JSON result.
func (s *Session) Evaluate(js string) (string, error) {
	obj, err := s.page.Timeout(s.cfg.Timeout).Eval(js)
	if err != nil {
		return "", fmt.Errorf("evaluate failed: %w", err)
	}
	return obj.Value.JSON("", ""), nil
}

func (s *Session) Close() {
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
}

// describeElement reads tag, text, attributes, and xpath in one pass.
func describeElement(el *rod.Element) (entity.ElementSnapshot, bool) {
	obj, err := el.Eval(`() => {
		const out = { tag: this.tagName.toLowerCase(), attrs: {} };
		for (const a of this.attributes) out.attrs[a.name] = a.value;
		return out;
	}`)
	if err != nil {
		return entity.ElementSnapshot{}, false
	}

	meta := entity.ElementSnapshot{
		Tag: obj.Value.Get("tag").Str(),
	}
	attrs := obj.Value.Get("attrs").Map()
	if len(attrs) > 0 {
		meta.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			meta.Attributes[k] = v.Str()
		}
	}

	if text, err := el.Text(); err == nil {
		meta.Text = normalizeWhitespace(text, 100)
	}

	xpath, err := el.GetXPath(false)
	if err != nil || xpath == "" {
		return entity.ElementSnapshot{}, false
	}
	meta.XPath = xpath
	return meta, true
}

func normalizeWhitespace(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// FormatElements renders a snapshot as an indexed list for the model.
func FormatElements(snapshot entity.DOMSnapshot) string {
	ordered := make([]entity.ElementSnapshot, 0, len(snapshot))
	for _, el := range snapshot {
		ordered = append(ordered, el)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].HighlightIndex < ordered[j].HighlightIndex
	})

	var sb strings.Builder
	for _, el := range ordered {
		fmt.Fprintf(&sb, "[%d] <%s>", el.HighlightIndex, el.Tag)
		if el.Text != "" {
			fmt.Fprintf(&sb, " %q", el.Text)
		}
		for _, key := range []string{"data-testid", "aria-label", "id", "name", "placeholder", "href"} {
			if v, ok := el.Attributes[key]; ok && v != "" {
				fmt.Fprintf(&sb, " %s=%q", key, v)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
