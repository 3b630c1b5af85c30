package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/pavelanni/instantquiz/internal/model"
)

// minColumns is the narrowest tabular row: text, four option cells, answer.
const minColumns = 6

var headerWords = []string{"question", "option", "answer"}

func parseTabular(data []byte) ([]model.Question, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	collector := &issueCollector{label: "Row"}
	var questions []model.Question
	sawRow := false
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedError{Format: FormatTabular, Err: err}
		}
		line, _ := reader.FieldPos(0)

		if isBlankRecord(record) {
			continue
		}
		first := !sawRow
		sawRow = true
		if first && isHeaderRecord(record) {
			continue
		}

		q, ok := parseRecord(record, line, collector)
		if ok {
			questions = append(questions, q)
		}
	}

	if err := collector.result(); err != nil {
		return nil, err
	}
	return questions, nil
}

// parseRecord validates one data row and records any defect against its line.
func parseRecord(record []string, line int, collector *issueCollector) (model.Question, bool) {
	if len(record) < minColumns {
		collector.add(line, "expected at least %d columns, got %d", minColumns, len(record))
		return model.Question{}, false
	}

	text := strings.TrimSpace(record[0])
	if text == "" {
		collector.add(line, "missing question text")
		return model.Question{}, false
	}

	answerField := record[len(record)-1]
	var options []string
	for _, cell := range record[1 : len(record)-1] {
		cell = strings.TrimSpace(cell)
		if cell == "" || strings.EqualFold(cell, "blank") {
			continue
		}
		options = append(options, cell)
	}

	if len(options) == 0 {
		accepted := splitTrimmed(answerField, "|")
		if len(accepted) == 0 {
			collector.add(line, "fill-in-blank question needs at least one acceptable answer")
			return model.Question{}, false
		}
		return model.Question{
			ID:                newID(),
			Text:              text,
			Kind:              model.KindFillInBlank,
			AcceptableAnswers: accepted,
		}, true
	}

	if len(options) < model.MinOptions || len(options) > model.MaxOptions {
		collector.add(line, "expected %d-%d options, got %d", model.MinOptions, model.MaxOptions, len(options))
		return model.Question{}, false
	}

	letters := splitTrimmed(strings.ToUpper(answerField), ",")
	letters = dedupe(letters)
	if len(letters) == 0 {
		collector.add(line, "missing correct answer")
		return model.Question{}, false
	}
	last := model.OptionLetter(len(options) - 1)
	for _, letter := range letters {
		idx := model.LetterIndex(letter)
		if len(letter) != 1 || idx < 0 || idx >= len(options) {
			collector.add(line, "invalid answer %q (expected a letter A-%s)", letter, last)
			return model.Question{}, false
		}
	}

	kind := model.KindSingleChoice
	if len(letters) > 1 {
		kind = model.KindMultiSelect
	}
	return model.Question{
		ID:             newID(),
		Text:           text,
		Kind:           kind,
		Options:        options,
		CorrectAnswers: letters,
	}, true
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isHeaderRecord(record []string) bool {
	for _, cell := range record {
		lower := strings.ToLower(cell)
		for _, word := range headerWords {
			if strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}

// sniffDelimiter picks tab when the first line is tab-separated and has no commas.
func sniffDelimiter(data []byte) rune {
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.ContainsRune(firstLine, '\t') && !bytes.ContainsRune(firstLine, ',') {
		return '\t'
	}
	return ','
}

func splitTrimmed(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
