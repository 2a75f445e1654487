// Package chunker splits a raw document into overlapping fixed-size
// windows for independent extraction.
package chunker

import (
	"github.com/agenthands/distill/internal/core/model"
)

// DefaultWindowSize is the default number of runes per window.
const DefaultWindowSize = 4000

// DefaultOverlap is the default number of overlapping runes between
// consecutive windows.
const DefaultOverlap = 200

// Chunker produces overlapping windows. Boundaries are rune-safe, so a
// window never splits a multi-byte character.
type Chunker struct {
	windowSize int
	overlap    int
}

func New(windowSize, overlap int) *Chunker {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	// Overlap must leave the window advancing.
	if overlap >= windowSize {
		overlap = windowSize / 4
	}
	return &Chunker{
		windowSize: windowSize,
		overlap:    overlap,
	}
}

// Split windows the document. Offsets on the produced chunks are rune
// offsets into the original text. Empty input produces no chunks.
func (c *Chunker) Split(text string) []model.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.windowSize - c.overlap

	var chunks []model.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + c.windowSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, model.Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}
