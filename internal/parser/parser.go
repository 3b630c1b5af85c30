// Package parser turns raw question files into normalized questions.
//
// Two source shapes are supported: a tabular CSV layout
// ([text, option_1..option_k, answer]) and a nested object with a
// "questions" list, written as JSON or YAML. Parsing never stops at the
// first bad row; every defect is collected into a ValidationError and the
// batch is rejected as a whole.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/instantquiz/internal/model"
)

// Format names a supported input layout.
type Format string

const (
	FormatTabular Format = "tabular"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
)

// newID generates ids for questions that do not carry one.
var newID = func() string { return "q-" + uuid.NewString() }

// DetectFormat picks a format from the file name, falling back to sniffing the content.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatTabular
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	switch {
	case bytes.HasPrefix(trimmed, []byte("{")):
		return FormatJSON
	case bytes.HasPrefix(trimmed, []byte("questions:")), bytes.HasPrefix(trimmed, []byte("---")):
		return FormatYAML
	default:
		return FormatTabular
	}
}

// Parse converts raw content into questions.
//
// The error is a *MalformedError when the content cannot be read as the format,
// a *ValidationError listing every rejected row or entry, or ErrNoQuestions
// when nothing survives filtering.
func Parse(data []byte, format Format) ([]model.Question, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var (
		questions []model.Question
		err       error
	)
	switch format {
	case FormatTabular:
		questions, err = parseTabular(data)
	case FormatJSON:
		questions, err = parseNestedJSON(data)
	case FormatYAML:
		questions, err = parseNestedYAML(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	slog.Debug("parsed questions", "format", format, "count", len(questions))
	return questions, nil
}

// ParseReader reads r once and parses it, detecting the format from name and content.
func ParseReader(r io.Reader, name string) ([]model.Question, Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", name, err)
	}
	format := DetectFormat(name, data)
	questions, err := Parse(data, format)
	return questions, format, err
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) ([]model.Question, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open question file: %w", err)
	}
	defer f.Close()
	return ParseReader(f, path)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}
