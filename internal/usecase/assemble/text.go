package assemble

import (
	"regexp"
	"strings"
	"unicode"

	"manifest-agent/internal/domain/entity"
)

// PlaceholderID is used when a task description slugs down to nothing.
const PlaceholderID = "unnamed-task"

// slugStopWords are dropped before building a target id.
var slugStopWords = map[string]struct{}{
	"how": {}, "to": {}, "do": {}, "i": {}, "the": {},
	"a": {}, "an": {}, "my": {}, "our": {},
}

// keywordStopWords is the wider set used for keyword extraction.
var keywordStopWords = map[string]struct{}{
	"how": {}, "to": {}, "do": {}, "i": {}, "the": {}, "a": {}, "an": {},
	"my": {}, "our": {}, "is": {}, "are": {}, "this": {}, "that": {},
	"can": {}, "will": {}, "be": {}, "have": {}, "has": {}, "for": {},
	"on": {}, "in": {}, "of": {}, "and": {}, "or": {},
}

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)
	wordRe     = regexp.MustCompile(`[a-z]+`)
)

// SlugID builds a kebab-case target id from a task description: stop words
// dropped, first four remaining tokens kept, non-alphanumerics stripped.
func SlugID(description string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(description)) {
		if _, stop := slugStopWords[word]; stop {
			continue
		}
		kept = append(kept, word)
		if len(kept) == 4 {
			break
		}
	}

	var cleaned []string
	for _, word := range kept {
		if w := nonAlnumRe.ReplaceAllString(word, ""); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	if len(cleaned) == 0 {
		return PlaceholderID
	}
	return strings.Join(cleaned, "-")
}

// Label renders the description in title case, truncated with an ellipsis
// when longer than 50 characters.
func Label(description string) string {
	label := titleCase(description)
	if len(label) > 50 {
		label = label[:47] + "..."
	}
	return label
}

// Keywords extracts up to ten lower-case keywords from description and
// label: alphabetic runs only, stop words and short tokens removed,
// duplicates dropped preserving first occurrence.
func Keywords(description, label string) []string {
	text := strings.ToLower(description + " " + label)

	var keywords []string
	seen := make(map[string]struct{})
	for _, word := range wordRe.FindAllString(text, -1) {
		if _, stop := keywordStopWords[word]; stop {
			continue
		}
		if len(word) <= 2 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

// Instruction generates human-readable step text from a canonical action.
func Instruction(action entity.CanonicalAction) string {
	text := strings.Join(strings.Fields(action.Text), " ")

	switch action.Type {
	case entity.CanonClick:
		if text != "" {
			return `Click on "` + text + `"`
		}
		if action.Tag != "" {
			return "Click the " + action.Tag
		}
		return "Click here"
	case entity.CanonType:
		if text != "" {
			return `Type in the "` + text + `" field`
		}
		return "Enter text"
	case entity.CanonSelect:
		if action.InputValue != "" {
			return `Select "` + action.InputValue + `"`
		}
		return "Select an option"
	}
	return "Perform action"
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		for j, r := range runes {
			if unicode.IsLetter(r) {
				runes[j] = unicode.ToUpper(r)
				break
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
