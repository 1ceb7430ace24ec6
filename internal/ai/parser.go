// Package ai provides the resilient JSON parsing and direct-API client
// used to talk to the external reasoning model.
package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled patterns. Compiling on every parse is an order of
// magnitude slower than reusing these.
var (
	// Fence patterns handle ```json ... ``` with or without trailing
	// newlines, anywhere in the text.
	fenceWholeRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	fenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	lineCommentRegex   = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Greedy extraction of an object or array embedded in prose.
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// maxParseInput bounds parser input to keep a runaway subprocess from
// exhausting memory.
const maxParseInput = 10 * 1024 * 1024

// ParseResult carries the outcome of a parse attempt. A result-style
// return avoids panics and keeps the original text for error reports.
type ParseResult[T any] struct {
	Success bool
	Data    T
	Error   string
}

// Parse decodes JSON produced by a language model, tolerating the usual
// formatting quirks. Strategies, in order:
//
//  1. direct parse
//  2. strip markdown code fences and retry
//  3. fix trailing commas and comments and retry
//  4. extract a JSON object/array from surrounding prose and retry
//
// context names the call site in error messages.
func Parse[T any](text, context string) ParseResult[T] {
	if len(text) > maxParseInput {
		return parseError[T](context, fmt.Sprintf("input exceeds %d byte limit", maxParseInput))
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseError[T](context, "empty input")
	}

	if data, err := tryParse[T](trimmed); err == nil {
		return ParseResult[T]{Success: true, Data: data}
	} else {
		slog.Debug("direct JSON parse failed, trying cleanup strategies",
			"error", err.Error(),
			"preview", preview(trimmed, 100),
			"context", context)
	}

	unfenced := stripFences(trimmed)
	if unfenced != trimmed {
		if data, err := tryParse[T](unfenced); err == nil {
			return ParseResult[T]{Success: true, Data: data}
		}
	}

	cleaned := cleanupJSON(unfenced)
	if data, err := tryParse[T](cleaned); err == nil {
		return ParseResult[T]{Success: true, Data: data}
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if data, err := tryParse[T](extracted); err == nil {
			return ParseResult[T]{Success: true, Data: data}
		}
	}

	return parseError[T](context, "all JSON parsing strategies failed")
}

// ParseOrDefault returns fallback when parsing fails.
func ParseOrDefault[T any](text, context string, fallback T) T {
	result := Parse[T](text, context)
	if !result.Success {
		slog.Debug("JSON parse failed, using fallback",
			"error", result.Error,
			"context", context)
		return fallback
	}
	return result.Data
}

func tryParse[T any](text string) (T, error) {
	var out T
	err := json.Unmarshal([]byte(text), &out)
	return out, err
}

// stripFences removes markdown code fences wrapping or embedded in text.
func stripFences(text string) string {
	cleaned := fenceWholeRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = fenceAnyRegex.ReplaceAllString(text, "$1")
	}
	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.Trim(cleaned, "`")
	}
	return strings.TrimSpace(cleaned)
}

// cleanupJSON removes trailing commas and comments. Single quotes are
// left alone: rewriting them would corrupt valid JSON containing
// apostrophes, and models emit double quotes consistently.
func cleanupJSON(text string) string {
	cleaned := trailingCommaRegex.ReplaceAllString(strings.TrimSpace(text), "$1")
	cleaned = lineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = blockCommentRegex.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// extractJSON pulls a JSON object or array out of mixed content. The
// first-character check keeps an array from being misread as its first
// element.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[':
			if match := arrayRegex.FindString(text); match != "" {
				return match
			}
		case '{':
			if match := objectRegex.FindString(text); match != "" {
				return match
			}
		}
	}
	if match := objectRegex.FindString(text); match != "" {
		return match
	}
	return arrayRegex.FindString(text)
}

func parseError[T any](context, message string) ParseResult[T] {
	var zero T
	if context != "" {
		message = context + ": " + message
	}
	return ParseResult[T]{Success: false, Data: zero, Error: message}
}

func preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
