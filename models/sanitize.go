package models

// SanitizationFlags are the classifier verdicts over a generated text.
type SanitizationFlags struct {
	PromptLeak      bool `json:"prompt_leak"`
	ReasoningLeak   bool `json:"reasoning_leak"`
	Gibberish       bool `json:"gibberish"`
	EmptyAfterStrip bool `json:"empty_after_strip"`
}

// Blocking returns true if any flag forbids showing the text to end users.
func (f SanitizationFlags) Blocking() bool {
	return f.PromptLeak || f.ReasoningLeak || f.Gibberish || f.EmptyAfterStrip
}

// SanitizationResult is the outcome of running generated text through the
// output sanitizer. Text is always "" when any blocking flag is set -
// sanitization is fail-closed.
type SanitizationResult struct {
	Text     string            `json:"text"`
	Cleaned  string            `json:"cleaned"`
	Stripped string            `json:"stripped"`
	Flags    SanitizationFlags `json:"flags"`
	Reasons  []string          `json:"reasons,omitempty"`
}
