package scad

import (
	"errors"
	"strings"
)

const fence = "```"

var langTags = []string{"openscad", "scad"}

// ErrEmptySource is returned when a model response contains no source text.
var ErrEmptySource = errors.New("response contained no source")

// ExtractSource normalizes an LLM response into raw OpenSCAD source. A
// markdown fence wrapping the whole response (with or without a language
// tag) is removed and surrounding whitespace trimmed.
func ExtractSource(text string) (string, error) {
	src := strings.TrimSpace(text)

	if strings.HasPrefix(src, fence) {
		if nl := strings.IndexByte(src, '\n'); nl >= 0 {
			src = src[nl+1:]
		} else {
			src = trimLangTag(strings.TrimPrefix(src, fence))
		}
	}
	src = strings.TrimSpace(src)
	if strings.HasSuffix(src, fence) {
		src = strings.TrimSpace(strings.TrimSuffix(src, fence))
	}

	if src == "" {
		return "", ErrEmptySource
	}
	return src, nil
}

// trimLangTag drops a language tag that shares a line with the opening fence.
func trimLangTag(src string) string {
	for _, tag := range langTags {
		rest, ok := strings.CutPrefix(src, tag)
		if !ok {
			continue
		}
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '`' {
			return rest
		}
	}
	return src
}
