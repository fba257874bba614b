package metadata

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/prompts"
)

const (
	maxTitleRunes       = 120
	maxHeadingRunes     = 120
	maxHeadingTitle     = 60
	maxHeadingLabel     = 80
	maxHeadingScan      = 10
	maxHeadingActions   = 6
	maxSuggestedActions = 8
	minActionTitleRunes = 3

	// DefaultDescription is used when the model gives no description.
	DefaultDescription = "This chatbot adapts to your uploaded presentation, summarizing sections and answering questions grounded in the file."
)

// Lower-cased prefixes that mark boilerplate slides.
var trivialPrefixes = []string{
	"by ",
	"agenda",
	"table of contents",
	"contents",
	"q&a",
	"qa",
	"thank you",
	"thanks",
	"overview",
}

// Topics use the same list plus the bare "thank".
var trivialTopicPrefixes = append([]string{"thank"}, trivialPrefixes...)

var (
	headingMarker   = regexp.MustCompile(`^[-•*\d]`)
	numberingPrefix = regexp.MustCompile(`^\d+[.)]\s+`)
)

func hasTrivialPrefix(text string, prefixes []string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// IsTrivial reports whether a heading or action title is boilerplate such as
// an agenda, authorship or thank-you slide. Blank text is trivial.
func IsTrivial(text string) bool {
	return hasTrivialPrefix(text, trivialPrefixes)
}

func isTrivialTopic(text string) bool {
	return hasTrivialPrefix(text, trivialTopicPrefixes)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func nonBlankLines(text string) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// FirstLine returns the first non-blank line of text, trimmed.
func FirstLine(text string) string {
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			return ln
		}
	}
	return ""
}

// isTitleCase: every cased run starts with an upper-case letter followed only
// by lower-case letters, and there is at least one cased letter.
func isTitleCase(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

// isAllCaps: at least one letter and no lower-case letters.
func isAllCaps(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func looksLikeHeading(line string) bool {
	if len([]rune(line)) >= maxHeadingRunes {
		return false
	}
	return isTitleCase(line) || isAllCaps(line) || headingMarker.MatchString(line)
}

func cleanHeading(line string) string {
	h := strings.TrimLeft(line, "-•* ")
	h = numberingPrefix.ReplaceAllString(h, "")
	return strings.Trim(h, "-•* ")
}

// Headings returns up to ten non-trivial heading-like lines of text with
// their bullet and numbering markers removed.
func Headings(text string) []string {
	var headings []string
	for _, ln := range nonBlankLines(text) {
		if !looksLikeHeading(ln) {
			continue
		}
		h := cleanHeading(ln)
		if IsTrivial(h) {
			continue
		}
		headings = append(headings, h)
		if len(headings) >= maxHeadingScan {
			break
		}
	}
	return headings
}

// HeadingActions synthesizes up to six suggested actions from the headings
// detected in text.
func HeadingActions(text string) []models.SuggestedAction {
	headings := Headings(text)
	if len(headings) > maxHeadingActions {
		headings = headings[:maxHeadingActions]
	}

	actions := make([]models.SuggestedAction, 0, len(headings))
	for _, h := range headings {
		actions = append(actions, models.SuggestedAction{
			Title:  truncate(h, maxHeadingTitle),
			Label:  "Ask about: " + truncate(h, maxHeadingLabel),
			Action: prompts.HeadingAction(h),
		})
	}
	return actions
}

// FilterActions keeps model-suggested actions whose title is at least three
// characters and not boilerplate, capped at eight.
func FilterActions(actions []models.SuggestedAction) []models.SuggestedAction {
	var kept []models.SuggestedAction
	for _, a := range actions {
		a.Title = strings.TrimSpace(a.Title)
		a.Label = strings.TrimSpace(a.Label)
		a.Action = strings.TrimSpace(a.Action)
		if len([]rune(a.Title)) < minActionTitleRunes || IsTrivial(a.Title) {
			continue
		}
		kept = append(kept, a)
		if len(kept) == maxSuggestedActions {
			break
		}
	}
	return kept
}

// ResolveTitle walks the title fallback chain: model title, document info
// title, first non-blank line, filename, then "Presentation".
func ResolveTitle(llmTitle, docTitle, text, filename string) string {
	title := strings.TrimSpace(llmTitle)
	if title == "" {
		title = strings.TrimSpace(docTitle)
	}
	if title == "" {
		title = FirstLine(text)
	}
	if title == "" {
		title = strings.TrimSpace(filename)
	}
	if title == "" {
		title = prompts.DefaultTitle
	}
	return truncate(title, maxTitleRunes)
}
