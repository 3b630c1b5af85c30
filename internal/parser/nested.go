package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/instantquiz/internal/model"
)

var errMissingQuestions = errors.New(`missing "questions" array`)

func parseNestedJSON(data []byte) ([]model.Question, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{Format: FormatJSON, Err: err}
	}
	return parseNestedDocument(doc, FormatJSON)
}

func parseNestedYAML(data []byte) ([]model.Question, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{Format: FormatYAML, Err: err}
	}
	return parseNestedDocument(doc, FormatYAML)
}

// parseNestedDocument walks a decoded {"questions": [...]} document.
func parseNestedDocument(doc any, format Format) ([]model.Question, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, &MalformedError{Format: format, Err: errMissingQuestions}
	}
	entries, ok := root["questions"].([]any)
	if !ok {
		return nil, &MalformedError{Format: format, Err: errMissingQuestions}
	}

	collector := &issueCollector{label: "Question"}
	seenIDs := map[string]int{}
	questions := make([]model.Question, 0, len(entries))
	for i, raw := range entries {
		number := i + 1
		entry, ok := raw.(map[string]any)
		if !ok {
			collector.add(number, "entry must be an object")
			continue
		}
		q, ok := parseEntry(entry, number, collector)
		if !ok {
			continue
		}
		if q.ID == "" {
			q.ID = newID()
		} else if prev, dup := seenIDs[q.ID]; dup {
			collector.add(number, "duplicate id %q (first used by question %d)", q.ID, prev)
			continue
		}
		seenIDs[q.ID] = number
		questions = append(questions, q)
	}

	if err := collector.result(); err != nil {
		return nil, err
	}
	return questions, nil
}

func parseEntry(entry map[string]any, number int, collector *issueCollector) (model.Question, bool) {
	text, _ := entry["question"].(string)
	text = strings.TrimSpace(text)
	if text == "" {
		collector.add(number, "missing or invalid question text")
		return model.Question{}, false
	}

	rawKind, _ := entry["type"].(string)
	kind := model.Kind(rawKind)
	if !kind.Valid() {
		collector.add(number, "invalid type %q, must be single-choice, multi-select, or fill-in-blank", fmt.Sprint(entry["type"]))
		return model.Question{}, false
	}

	q := model.Question{
		ID:          idString(entry["id"]),
		Text:        text,
		Kind:        kind,
		Explanation: stringField(entry["explanation"]),
		Metadata:    metadataField(entry["metadata"]),
	}

	if kind == model.KindFillInBlank {
		accepted, ok := stringList(entry["correctAnswers"])
		if !ok || len(accepted) == 0 {
			collector.add(number, "fill-in-blank must have a non-empty correctAnswers list of strings")
			return model.Question{}, false
		}
		q.AcceptableAnswers = accepted
		return q, true
	}

	options, ok := stringList(entry["options"])
	rawOptions, _ := entry["options"].([]any)
	if !ok || len(options) != len(rawOptions) || len(options) < model.MinOptions || len(options) > model.MaxOptions {
		collector.add(number, "options must be a list of %d-%d non-empty strings", model.MinOptions, model.MaxOptions)
		return model.Question{}, false
	}

	rawCorrect, ok := entry["correctAnswers"].([]any)
	if !ok || len(rawCorrect) == 0 {
		collector.add(number, "missing correctAnswers list")
		return model.Question{}, false
	}
	letters := make([]string, 0, len(rawCorrect))
	for _, v := range rawCorrect {
		idx, ok := asIndex(v)
		if !ok || idx < 0 || idx >= len(options) {
			collector.add(number, "invalid correctAnswers index %v (expected 0-%d)", v, len(options)-1)
			return model.Question{}, false
		}
		letters = append(letters, model.OptionLetter(idx))
	}
	letters = dedupe(letters)
	if kind == model.KindSingleChoice && len(letters) != 1 {
		collector.add(number, "single-choice must have exactly one correct answer, got %d", len(letters))
		return model.Question{}, false
	}

	q.Options = options
	q.CorrectAnswers = letters
	return q, true
}

// stringList returns the trimmed, non-empty strings of a list. It fails if any element is not a string.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// asIndex accepts integral numbers from either decoder.
func asIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// metadataField keeps a metadata mapping in a JSON-encodable shape. YAML decodes
// mappings with non-string keys as map[any]any; their keys are stringified.
func metadataField(v any) map[string]any {
	m, _ := jsonSafe(v).(map[string]any)
	return m
}

func jsonSafe(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = jsonSafe(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = jsonSafe(val)
		}
		return out
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return v
	default:
		return v
	}
}
