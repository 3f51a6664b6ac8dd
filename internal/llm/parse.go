package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrParse is returned when a response cannot be decoded into the target type.
var ErrParse = errors.New("unparseable LLM response")

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseStructured decodes an LLM response into T. Content that is a JSON
// string (the shape of schema-less responses) is unwrapped first. Then one
// repair strategy applies, in order: the content as-is, the first fenced
// code block, the outermost {...} span.
func ParseStructured[T any](content []byte) (T, error) {
	var out T

	text := bytes.TrimSpace(content)
	var s string
	if len(text) > 0 && text[0] == '"' && json.Unmarshal(text, &s) == nil {
		text = bytes.TrimSpace([]byte(s))
	}

	for _, candidate := range [][]byte{text, fenced(text), outermostObject(text)} {
		if len(candidate) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(candidate, &v); err == nil {
			return v, nil
		}
	}
	return out, fmt.Errorf("%w: %s", ErrParse, preview(text))
}

func fenced(text []byte) []byte {
	m := fencedJSON.FindSubmatch(text)
	if m == nil {
		return nil
	}
	return bytes.TrimSpace(m[1])
}

func outermostObject(text []byte) []byte {
	start := bytes.IndexByte(text, '{')
	end := bytes.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil
	}
	return text[start : end+1]
}

func preview(text []byte) string {
	const max = 80
	if len(text) > max {
		return string(text[:max]) + "..."
	}
	return string(text)
}
