package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pavelanni/instantquiz/internal/model"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte("What is 2+2?,3,4,blank,blank,B\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	badJSON := `{"questions":[{"question":"Q","type":"essay"},{"question":"","type":"single-choice"}]}`
	if err := os.WriteFile(bad, []byte(badJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good file: %v\n%s", err, out)
	}
	if !strings.Contains(out, "good.csv: 1 question(s), tabular format") {
		t.Errorf("output = %q", out)
	}

	out, err = runCLI(t, "validate", good, bad)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"bad.json: 2 problem(s)", "Question 1: invalid type", "Question 2: missing or invalid question text"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	export := model.AttemptsExport{Source: "quiz.csv", Format: "tabular", Attempts: []model.ResultsReport{{Score: 80}}}
	if err := writeJSON(path, export); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got model.AttemptsExport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Source != "quiz.csv" || len(got.Attempts) != 1 || got.Attempts[0].Score != 80 {
		t.Errorf("report = %+v", got)
	}
}

func TestViperReadsConfigFile(t *testing.T) {
	if !slices.Contains(configPaths, "/etc/instantquiz") {
		t.Errorf("configPaths = %v, want the system directory", configPaths)
	}

	dir := t.TempDir()
	cfg := "passing-score: 55\nshuffle-options: true\n"
	if err := os.WriteFile(filepath.Join(dir, "instantquiz.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("INSTANTQUIZ_TIMER_MINUTES", "45")

	v := viperForCmd(takeCmd())
	var got model.QuizConfig
	if err := v.Unmarshal(&got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.PassingScore != 55 || !got.ShuffleOptions || got.TimerMinutes != 45 {
		t.Errorf("config = %+v, want passing 55, shuffled options, 45 minutes", got)
	}
}
