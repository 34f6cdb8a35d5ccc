package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"replygate/models"
)

// Default maximum length of a delivered reply, matching the Discord message
// limit.
const DefaultMaxLength = 2000

// collapsedFiller is what CollapseRepetitiveLines returns when every input
// line looks like spam - the caller always gets something to show.
const collapsedFiller = "(nothing useful came out of this one)"

// promptLeakMarkers are internal metadata-header markers that must never
// appear in user-facing output. Matching is case-insensitive substring.
var promptLeakMarkers = []string{
	"trigger:",
	"server:",
	"member facts:",
	"new message from",
	"conversation history",
	"[system]",
	"instructions:",
	"your persona",
}

// metadataLineLabels are lines dropped when they match exactly
// (case-insensitive, after trimming).
var metadataLineLabels = []string{
	"context",
	"history",
	"facts",
}

// metadataLinePrefixes drop any line starting with one of these
// (case-insensitive, after trimming).
var metadataLinePrefixes = []string{
	"trigger:",
	"server:",
	"channel:",
	"member facts:",
	"new message from",
	"user:",
	"context:",
}

// hiddenReasoningTags are wrapper tags whose content is hidden chain of
// thought, stripped before any classification.
var hiddenReasoningTags = []string{"think", "thinking", "reasoning", "scratchpad", "analysis"}

var (
	hiddenReasoningBlockPatterns = buildReasoningBlockPatterns()
	strayReasoningTagPattern     = regexp.MustCompile(`(?i)<\s*/?\s*(?:think|thinking|reasoning|scratchpad|analysis)\s*>`)
	finalAnswerMarkerPattern     = regexp.MustCompile(`(?i)(?:final answer|final response)\s*[:：]`)
	reasoningPrefixPattern       = regexp.MustCompile(`(?im)^\s*(?:reasoning|analysis)\s*:`)
	thirdPersonUserPattern       = regexp.MustCompile(`(?i)\bthe user\b`)
	firstPersonPlanningPattern   = regexp.MustCompile(`(?i)\bI\s+(?:should|need to|must|will now)\b`)
	digitRunPattern              = regexp.MustCompile(`[0-9]{20,}`)
	lineBulletPrefixPattern      = regexp.MustCompile(`^\s*(?:[-*•+‣]|\d{1,3}[.)])\s*`)
	lineKeyStripPattern          = regexp.MustCompile(`[^a-z0-9]+`)
)

func buildReasoningBlockPatterns() []*regexp.Regexp {
	// RE2 has no backreferences, so each tag pair gets its own pattern.
	patterns := make([]*regexp.Regexp, 0, len(hiddenReasoningTags))
	for _, tag := range hiddenReasoningTags {
		patterns = append(patterns, regexp.MustCompile(`(?is)<\s*`+tag+`\s*>.*?<\s*/\s*`+tag+`\s*>`))
	}
	return patterns
}

// OutputSanitizer classifies and cleans raw generated text before it can
// reach end users. All classification is fail-closed: if anything looks like
// a prompt leak, reasoning leak or gibberish, the returned text is empty.
type OutputSanitizer struct {
	maxLength int
}

func NewOutputSanitizer(maxLength int) *OutputSanitizer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &OutputSanitizer{maxLength: maxLength}
}

// Sanitize runs the full pipeline: control-character stripping, hidden
// reasoning removal, leak/gibberish classification, metadata-line stripping,
// then a second classification pass over the stripped text. Truncation
// happens only after all classification so it can never mask a check.
func (s *OutputSanitizer) Sanitize(raw string) models.SanitizationResult {
	cleaned := stripControlCharacters(raw)
	cleaned = stripHiddenReasoning(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	flags, reasons := classify(cleaned)

	stripped := stripMetadataLines(cleaned)
	if stripped == "" {
		flags.EmptyAfterStrip = true
		reasons = append(reasons, "empty after metadata strip")
	} else {
		// Second gate: a leak can become visible only after stripping.
		strippedFlags, strippedReasons := classify(stripped)
		if strippedFlags.PromptLeak && !flags.PromptLeak ||
			strippedFlags.ReasoningLeak && !flags.ReasoningLeak ||
			strippedFlags.Gibberish && !flags.Gibberish {
			reasons = append(reasons, strippedReasons...)
		}
		flags.PromptLeak = flags.PromptLeak || strippedFlags.PromptLeak
		flags.ReasoningLeak = flags.ReasoningLeak || strippedFlags.ReasoningLeak
		flags.Gibberish = flags.Gibberish || strippedFlags.Gibberish
	}

	result := models.SanitizationResult{
		Cleaned:  cleaned,
		Stripped: stripped,
		Flags:    flags,
		Reasons:  reasons,
	}

	if flags.Blocking() {
		return result
	}

	result.Text = truncate(stripped, s.maxLength)
	return result
}

// CollapseRepetitiveLines dedupes a multi-line block by a normalized key
// (bullets, numbering and punctuation removed, lowercased), preserving first
// occurrence order. If every original line independently looks spammy the
// whole block collapses to a single filler line, never to nothing.
func (s *OutputSanitizer) CollapseRepetitiveLines(lines []string) []string {
	seen := make(map[string]bool)
	var out []string
	allSpammy := true

	for _, line := range lines {
		display := strings.TrimSpace(lineBulletPrefixPattern.ReplaceAllString(line, ""))
		if !lineLooksSpammy(display) {
			allSpammy = false
		}

		key := lineKeyStripPattern.ReplaceAllString(strings.ToLower(display), "")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, display)
	}

	if len(out) == 0 || allSpammy {
		return []string{collapsedFiller}
	}
	return out
}

func lineLooksSpammy(line string) bool {
	runes := []rune(strings.TrimSpace(line))
	if len(runes) <= 1 {
		return true
	}
	for _, r := range runes {
		if r != runes[0] {
			return false
		}
	}
	return true
}

// classify runs the three content classifiers. The decision is an OR of
// independent flags, so evaluation order carries no meaning.
func classify(text string) (models.SanitizationFlags, []string) {
	var flags models.SanitizationFlags
	var reasons []string

	if marker, leaked := findPromptLeakMarker(text); leaked {
		flags.PromptLeak = true
		reasons = append(reasons, "prompt leak marker: "+marker)
	}
	if looksLikeReasoningLeak(text) {
		flags.ReasoningLeak = true
		reasons = append(reasons, "chain-of-thought phrasing")
	}
	if reason, gibberish := looksLikeGibberish(text); gibberish {
		flags.Gibberish = true
		reasons = append(reasons, reason)
	}

	return flags, reasons
}

func findPromptLeakMarker(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, marker := range promptLeakMarkers {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	return "", false
}

func looksLikeReasoningLeak(text string) bool {
	if reasoningPrefixPattern.MatchString(text) {
		return true
	}
	// Third-person narration about "the user" combined with first-person
	// planning is the model thinking out loud.
	return thirdPersonUserPattern.MatchString(text) && firstPersonPlanningPattern.MatchString(text)
}

func looksLikeGibberish(text string) (string, bool) {
	switch {
	case hasLongCharRun(text, 13):
		return "repeated character run", true
	case digitRunPattern.MatchString(text):
		return "long digit run", true
	case hasRepeatedWords(text, 5):
		return "repeated word run", true
	case hasRepeatedSubstring(text):
		return "repeated substring", true
	case hasLowTokenVariety(text):
		return "low token variety", true
	}
	return "", false
}

func hasLongCharRun(text string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= limit {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

func hasRepeatedWords(text string, limit int) bool {
	var prev string
	run := 0
	for _, word := range strings.Fields(text) {
		word = strings.ToLower(word)
		if word == prev {
			run++
			if run >= limit {
				return true
			}
		} else {
			prev = word
			run = 1
		}
	}
	return false
}

// hasRepeatedSubstring reports a short unit (2-8 bytes) repeated 4+ times
// back-to-back. RE2 cannot express this, so it is an explicit scan.
func hasRepeatedSubstring(text string) bool {
	const minUnit, maxUnit, repeats = 2, 8, 4
	n := len(text)
	for i := 0; i < n; i++ {
		for unitLen := minUnit; unitLen <= maxUnit && i+unitLen*repeats <= n; unitLen++ {
			unit := text[i : i+unitLen]
			matched := true
			for k := 1; k < repeats; k++ {
				if text[i+k*unitLen:i+(k+1)*unitLen] != unit {
					matched = false
					break
				}
			}
			if matched {
				return true
			}
		}
	}
	return false
}

func hasLowTokenVariety(text string) bool {
	const minTokens = 12
	const minRatio = 0.35

	tokens := strings.Fields(text)
	if len(tokens) < minTokens {
		return false
	}

	unique := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		unique[strings.ToLower(token)] = true
	}

	return float64(len(unique))/float64(len(tokens)) < minRatio
}

// stripControlCharacters removes non-printable control characters (keeping
// newline, carriage return and tab) and zero-width/bidi-control characters
// that can hide data or break rendering.
func stripControlCharacters(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
		case isInvisibleRune(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isInvisibleRune(r rune) bool {
	switch {
	case r >= 0x200B && r <= 0x200F: // zero-width space/joiners, LRM, RLM
		return true
	case r >= 0x202A && r <= 0x202E: // bidi embedding/override controls
		return true
	case r >= 0x2066 && r <= 0x2069: // bidi isolate controls
		return true
	case r == 0x2060 || r == 0xFEFF: // word joiner, BOM
		return true
	}
	return false
}

// stripHiddenReasoning removes hidden-reasoning wrapper blocks and stray
// wrapper tags, then keeps only the content after the last "final answer:"
// style marker if one is present.
func stripHiddenReasoning(text string) string {
	for _, pattern := range hiddenReasoningBlockPatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	text = strayReasoningTagPattern.ReplaceAllString(text, "")

	if locs := finalAnswerMarkerPattern.FindAllStringIndex(text, -1); len(locs) > 0 {
		text = text[locs[len(locs)-1][1]:]
	}

	return text
}

// stripMetadataLines drops, line by line, anything that is exactly a known
// metadata-header label or starts with a metadata-header prefix, discarding
// empty lines.
func stripMetadataLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isMetadataLine(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isMetadataLine(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	for _, label := range metadataLineLabels {
		if lower == label {
			return true
		}
	}
	for _, prefix := range metadataLinePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// truncate cuts text to at most maxLength bytes with a "..." suffix, never
// splitting a rune. Limits too small to hold the suffix get a plain cut.
func truncate(text string, maxLength int) string {
	if maxLength <= 0 || len(text) <= maxLength {
		return text
	}

	suffix := "..."
	cut := maxLength - len(suffix)
	if cut < 1 {
		suffix = ""
		cut = maxLength
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + suffix
}
