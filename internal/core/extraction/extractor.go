package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/distill/internal/core/common"
	"github.com/agenthands/distill/internal/core/model"
	"github.com/agenthands/distill/internal/llm"
)

// Extractor turns one chunk of text into a field->value map. The LLM
// backed implementation lives here; anything satisfying this contract
// can drive the coordinator (see the mock in coordinator tests).
type Extractor interface {
	Extract(ctx context.Context, chunkText string, specs []model.FieldSpec) (model.ChunkResult, error)
}

// DefaultPrompt is used when the config supplies no extraction template.
// Verbs: field schema listing, chunk text.
const DefaultPrompt = `You are extracting structured fields from a document excerpt.

Fields to extract:
%s

Document excerpt:
%s

Return a JSON object:
{"fields": {<field name>: <value or null>, ...}, "confidence": <0.0-1.0>}

Use null for fields not present in this excerpt. List fields must be JSON arrays. Date fields must be strings.`

type LLMExtractor struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewLLMExtractor(llmClient llm.LLMClient, prompt string) *LLMExtractor {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &LLMExtractor{
		LLM:    llmClient,
		Prompt: prompt,
	}
}

// response is the wire shape the model is asked to produce.
type response struct {
	Fields     map[string]interface{} `json:"fields"`
	Confidence *float64               `json:"confidence"`
}

func (e *LLMExtractor) Extract(ctx context.Context, chunkText string, specs []model.FieldSpec) (model.ChunkResult, error) {
	prompt := fmt.Sprintf(e.Prompt, formatSchema(specs), chunkText)

	reply, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return model.ChunkResult{}, fmt.Errorf("failed to generate extraction: %w", err)
	}

	result, err := common.ParseJSON[response](reply)
	if err != nil {
		return model.ChunkResult{}, fmt.Errorf("failed to parse extraction: %w", err)
	}

	fields := result.Fields
	if fields == nil {
		fields = map[string]interface{}{}
	}

	// Drop anything the schema does not declare; the model sometimes
	// volunteers extras.
	for name := range fields {
		if !declared(specs, name) {
			delete(fields, name)
		}
	}

	return model.ChunkResult{
		Fields:          fields,
		ChunkConfidence: result.Confidence,
	}, nil
}

func formatSchema(specs []model.FieldSpec) string {
	var b strings.Builder
	for _, s := range specs {
		fmt.Fprintf(&b, "- %s (%s)", s.Name, s.Kind)
		if s.Description != "" {
			fmt.Fprintf(&b, ": %s", s.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func declared(specs []model.FieldSpec, name string) bool {
	for _, s := range specs {
		if s.Name == name {
			return true
		}
	}
	return false
}
