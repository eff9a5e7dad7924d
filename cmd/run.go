package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/browser"
	"github.com/applymate/applymate/internal/detect"
	"github.com/applymate/applymate/internal/fill"
	"github.com/applymate/applymate/internal/logger"
	"github.com/applymate/applymate/internal/match"
	"github.com/applymate/applymate/internal/match/gemini"
	"github.com/applymate/applymate/internal/profile"
	"github.com/applymate/applymate/internal/secrets"
	"github.com/applymate/applymate/internal/store"
)

const (
	PromptYes           = "Yes"
	PromptNo            = "No"
	PromptReportMatches = "Report matches"
	PromptMatchesToFile = "Dump matches to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Fill the detected fields?",
	Items: []string{PromptYes, PromptNo, PromptReportMatches, PromptMatchesToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a job application page, detect its form and fill it from your profile",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("url", "u", "", "job application page url")
	runCmd.Flags().BoolP("force", "f", false, "clear fields before writing instead of appending")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before filling")
	runCmd.Flags().Bool("headless", true, "run the browser without a visible window")
	runCmd.MarkFlagRequired("url")

	viper.BindPFlag("browser.headless", runCmd.Flags().Lookup("headless"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting applymate", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	db, err := store.Open(config.storePath(), logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer db.Close()

	userID, err := db.EnsureDefaultUser(ctx)
	if err != nil {
		logger.Fatal("ensuring the default user", zap.Error(err))
	}

	values, err := db.GetProfileValues(ctx, userID)
	if err != nil || len(values) == 0 {
		logger.Fatal("loading the profile",
			zap.Error(err),
			zap.String("hint", "import one first with 'applymate profile import <file.yaml>'"),
		)
	}

	logger.Info("profile loaded", zap.Int("attributes", len(values)))

	session := browser.NewSession(config.browserOptions(), logger)
	if err := session.Open(); err != nil {
		logger.Fatal("starting the browser",
			zap.Error(err),
			zap.String("hint", "check the browser installation and run again"),
		)
	}
	defer session.Shutdown()

	jobURL := cmd.Flag("url").Value.String()

	loaded, err := session.Navigate(ctx, jobURL)
	if err != nil {
		logger.Fatal("navigating to the page", zap.Error(err))
	}
	if !loaded {
		logger.Warn("page did not load, nothing to detect", zap.String("url", jobURL))
		return
	}

	fields, err := detect.New(logger).Detect(session.Page())
	if err != nil {
		logger.Fatal("detecting form fields", zap.Error(err))
	}

	if len(fields) == 0 {
		logger.Info("exiting", zap.String("reason", "no form fields detected"))
		return
	}

	applicationID, err := db.CreateApplication(ctx, userID, jobURL, "", "")
	if err != nil {
		logger.Fatal("recording the application", zap.Error(err))
	}
	if err := db.SaveDetectedFields(ctx, applicationID, fields); err != nil {
		logger.Fatal("saving detected fields", zap.Error(err))
	}

	assist, err := newAssistEngine(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("running without the assist engine", zap.Error(err))
	}

	matcher := match.NewMatcher(match.DefaultVocabulary(), config.minScore(), assist, logger)
	results := matcher.MatchFields(ctx, fields)

	fillable := fillableAssignments(results, values, matcher.MinScore())
	if len(fillable) == 0 {
		logger.Info("exiting", zap.String("reason", "no field matched a profile attribute with enough confidence"))
		return
	}

	logger.Info("ready to fill",
		zap.Int("fillable", len(fillable)),
		zap.Int("detected", len(fields)),
	)

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		err = handleAction(ctx, action, &runDeps{
			cmd:           cmd,
			logger:        logger,
			config:        config,
			session:       session,
			db:            db,
			applicationID: applicationID,
			results:       results,
			fillable:      fillable,
		})
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

type runDeps struct {
	cmd           *cobra.Command
	logger        *zap.Logger
	config        *Config
	session       *browser.Session
	db            *store.Store
	applicationID int64
	results       match.Results
	fillable      []fill.Assignment
}

func handleAction(ctx context.Context, action string, deps *runDeps) error {
	switch action {
	case PromptYes:
		return fillForm(ctx, deps)
	case PromptNo:
		deps.logger.Info("exiting", zap.String("reason", "got no from prompt"))
		if err := deps.db.UpdateApplicationStatus(ctx, deps.applicationID, store.StatusSkipped); err != nil {
			deps.logger.Warn("marking the application skipped", zap.Error(err))
		}
		return errExit
	case PromptReportMatches:
		pretty, _ := json.MarshalIndent(deps.results, "", "  ")
		deps.logger.Info(string(pretty), zap.Int("matched", deps.results.Matched()))
		return nil
	case PromptMatchesToFile:
		filename, err := deps.results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump matches to file: %w", err)
		}
		deps.logger.Info("dumping matches to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// fillForm writes the fillable values into the page and records what was
// written. The form is never submitted; the tab stays on the filled page
// for the user to review.
func fillForm(ctx context.Context, deps *runDeps) error {
	force := deps.cmd.Flag("force").Value.String() == "true"

	filler := fill.New(deps.session.Page(), deps.config.fillOptions(), deps.logger)
	filled, err := filler.FillForm(ctx, deps.fillable, force)
	if err != nil {
		return fmt.Errorf("filling the form: %w", err)
	}

	written := make(map[string]string, len(filled))
	for _, assignment := range deps.fillable {
		if filled[assignment.Field.Selector] {
			written[assignment.Field.Selector] = assignment.Value
		}
	}
	if err := deps.db.SaveFilledData(ctx, deps.applicationID, written); err != nil {
		return fmt.Errorf("saving filled data: %w", err)
	}

	deps.logger.Info("form filled, review and submit it yourself",
		zap.Int("filled", len(written)),
		zap.Int("attempted", len(deps.fillable)),
		zap.String("url", deps.session.CurrentURL()),
	)
	return errExit
}

// fillableAssignments keeps the confident matches whose attribute has a
// profile value, preserving field order.
func fillableAssignments(results match.Results, values profile.Values, minScore float64) []fill.Assignment {
	assignments := make([]fill.Assignment, 0, len(results))
	for _, result := range results {
		if !result.Actionable(minScore) {
			continue
		}
		value, ok := values[result.Attribute]
		if !ok {
			continue
		}
		assignments = append(assignments, fill.Assignment{
			Field: result.Field,
			Value: value,
		})
	}
	return assignments
}

func newAssistEngine(ctx context.Context, cfg *AIConfig, log *zap.Logger) (match.Engine, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when the assist engine is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	engineLogger := logger.WithEngineFields(log, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, engineLogger)
	if err != nil {
		return nil, err
	}

	attributes := make([]profile.Attribute, 0)
	for _, entry := range match.DefaultVocabulary() {
		attributes = append(attributes, entry.Attribute)
	}

	return gemini.NewEngine(generator, attributes, cfg.MaxLogLength, engineLogger), nil
}
