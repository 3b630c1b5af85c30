package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appI18n "github.com/pavelanni/instantquiz/internal/i18n"
	"github.com/pavelanni/instantquiz/internal/model"
	"github.com/pavelanni/instantquiz/internal/parser"
	"github.com/pavelanni/instantquiz/internal/store"
	"github.com/pavelanni/instantquiz/internal/tui"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "instantquiz [file]",
		Short: "Take timed quizzes from CSV, JSON or YAML question files",
		Args:  cobra.MaximumNArgs(1),
	}

	take := takeCmd()
	root.AddCommand(take, validateCmd())

	// Make "take" the default when no subcommand is given.
	root.RunE = take.RunE

	// Register take flags on root so bare `instantquiz --timer quiz.csv` still works.
	root.Flags().AddFlagSet(take.Flags())

	return root
}

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take [file]",
		Short: "Take a quiz in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTake,
	}
	f := cmd.Flags()
	f.IntP("question-count", "n", 0, "Number of questions per attempt (0 = all)")
	f.Bool("timer", false, "Enable the exam timer")
	f.IntP("timer-minutes", "m", model.DefaultTimer, "Exam time limit in minutes (1-999)")
	f.IntP("passing-score", "p", model.DefaultPassScore, "Passing score in percent (0-100)")
	f.Bool("shuffle-questions", false, "Randomize question order")
	f.Bool("shuffle-options", false, "Randomize option order of choice questions")
	f.StringP("lang", "l", "", "UI language (en, ru); defaults to $LANG")
	f.Bool("no-color", false, "Disable colors")
	f.StringP("report", "o", "", "Write all attempts as JSON on exit (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	f.String("log-file", "", "Write logs to this file (discarded when empty)")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate file...",
		Short: "Check question files and print every problem found",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(v *viper.Viper, w io.Writer) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(w, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// configPaths are searched in order for an instantquiz.{yaml,toml,json} config file.
var configPaths = []string{".", "$HOME/.config/instantquiz", "/etc/instantquiz"}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INSTANTQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("instantquiz")
	for _, dir := range configPaths {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runTake(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	// The terminal UI owns stdout and stderr while it runs.
	logOut := io.Discard
	if path := v.GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	setupLogging(v, logOut)

	var defaults model.QuizConfig
	if err := v.Unmarshal(&defaults); err != nil {
		return fmt.Errorf("read quiz settings: %w", err)
	}

	lang := appI18n.FromEnv(v.GetString("lang"))
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang))

	db, err := store.New(store.MemoryDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	app := tui.NewApp(db, defaults)
	opts := tui.Options{NoColor: v.GetBool("no-color")}
	if len(args) > 0 {
		opts.Path = args[0]
	}

	slog.Info("starting quiz",
		"lang", lang,
		"question_count", defaults.QuestionCount,
		"timer", defaults.TimerEnabled,
		"timer_minutes", defaults.TimerMinutes,
		"passing_score", defaults.PassingScore,
		"shuffle_questions", defaults.ShuffleQuestions,
		"shuffle_options", defaults.ShuffleOptions,
	)
	program := tea.NewProgram(tui.NewModel(ctx, app, opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}

	if out := v.GetString("report"); out != "" {
		export, ok, err := app.Export()
		if err != nil {
			return fmt.Errorf("export attempts: %w", err)
		}
		if !ok {
			slog.Warn("no question file loaded, skipping report")
			return nil
		}
		return writeJSON(out, export)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	setupLogging(viperForCmd(cmd), os.Stderr)

	w := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		questions, format, err := parser.ParseFile(path)
		if err == nil {
			fmt.Fprintf(w, "%s: %d question(s), %s format\n", path, len(questions), format)
			continue
		}
		failed++
		var verr *parser.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(w, "%s: %d problem(s)\n", path, len(verr.Issues))
			for _, issue := range verr.Issues {
				fmt.Fprintf(w, "  %s\n", issue)
			}
			continue
		}
		fmt.Fprintf(w, "%s: %v\n", path, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or stdout for "-".
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
