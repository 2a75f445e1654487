// Package temporal normalizes free-form date strings to canonical
// YYYY-MM-DD form and orders date-bearing events chronologically.
package temporal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agenthands/distill/internal/llm"
	"go.uber.org/zap"
)

// CanonicalLayout is the only normalized date representation used
// downstream. No timezone or time-of-day component is modeled.
const CanonicalLayout = "2006-01-02"

// DefaultDatePrompt is used when the config supplies no date template.
const DefaultDatePrompt = `Convert the following date expression to ISO format (YYYY-MM-DD).
Reply with the date only.

Date expression: %s`

var isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

// DateNormalizer converts free-form date strings to CanonicalLayout.
// Layouts are tried in order and must consume the whole string; when
// none match and an LLM is attached, the string is handed to the model
// and its reply scanned for an ISO date. Normalize never fails hard: it
// reports ok=false instead.
type DateNormalizer struct {
	Layouts    []string
	LLM        llm.LLMClient
	Prompt     string
	LLMTimeout time.Duration
	Log        *zap.Logger
}

func NewDateNormalizer(layouts []string, llmClient llm.LLMClient, prompt string, llmTimeout time.Duration, log *zap.Logger) *DateNormalizer {
	if prompt == "" {
		prompt = DefaultDatePrompt
	}
	if llmTimeout <= 0 {
		llmTimeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DateNormalizer{
		Layouts:    layouts,
		LLM:        llmClient,
		Prompt:     prompt,
		LLMTimeout: llmTimeout,
		Log:        log,
	}
}

// Normalize returns the canonical form of raw, or ok=false when raw is
// not recognizably a date. A wrong date is never returned silently: an
// ambiguous string that matches no configured layout and defeats the
// fallback yields ok=false.
func (n *DateNormalizer) Normalize(ctx context.Context, raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	for _, layout := range n.Layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(CanonicalLayout), true
		}
	}

	if n.LLM == nil {
		return "", false
	}
	return n.normalizeWithLLM(ctx, trimmed)
}

// normalizeWithLLM is the slow, higher-recall path: ask the model for an
// ISO rendering and harvest the first YYYY-MM-DD it produces.
func (n *DateNormalizer) normalizeWithLLM(ctx context.Context, raw string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, n.LLMTimeout)
	defer cancel()

	reply, err := n.LLM.Generate(ctx, fmt.Sprintf(n.Prompt, raw))
	if err != nil {
		n.Log.Warn("llm date parse failed", zap.String("raw", raw), zap.Error(err))
		return "", false
	}

	match := isoDatePattern.FindString(reply)
	if match == "" {
		return "", false
	}

	// Reject well-formed but impossible dates like 2023-13-45.
	if _, err := time.Parse(CanonicalLayout, match); err != nil {
		return "", false
	}
	return match, true
}
