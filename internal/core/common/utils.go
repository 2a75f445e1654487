package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON unmarshals the JSON document embedded in an LLM reply into T.
// Replies routinely wrap the payload in markdown fences or prose, so the
// payload is located by bracketing: the first '{' (or '[') through the
// matching last '}' (or ']').
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr, err := bracket(response)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}

// bracket slices out the outermost JSON object or array in s.
func bracket(s string) (string, error) {
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')

	start, closer := objStart, byte('}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, ']'
	}
	if start == -1 {
		return "", fmt.Errorf("no JSON object or array found in response")
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return "", fmt.Errorf("unterminated JSON in response (missing '%c')", closer)
	}

	return s[start : end+1], nil
}
