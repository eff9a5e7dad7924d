package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/browser"
	"github.com/applymate/applymate/internal/logger"
	"github.com/applymate/applymate/internal/profile"
	"github.com/applymate/applymate/internal/store"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the stored profile used for auto-fill",
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import a profile from a YAML file, replacing the stored one",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		profileImport(args[0])
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile as JSON",
	Run: func(_ *cobra.Command, _ []string) {
		profileShow()
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileShowCmd)
}

func profileImport(path string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		logger.Fatal("reading the profile file", zap.Error(err))
	}

	var p profile.Profile
	if err := v.Unmarshal(&p); err != nil {
		logger.Fatal("parsing the profile file", zap.Error(err))
	}

	values := p.Values()
	if len(values) == 0 {
		logger.Fatal("the profile file has no usable attributes",
			zap.String("hint", "use the attribute names as keys, e.g. first_name, email, linkedin_url"),
		)
	}

	for _, warning := range validateProfile(&p) {
		logger.Warn("profile value looks off", zap.String("problem", warning))
	}

	db, err := store.Open(config.storePath(), logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer db.Close()

	userID, err := db.EnsureDefaultUser(ctx)
	if err != nil {
		logger.Fatal("ensuring the default user", zap.Error(err))
	}

	if err := db.UpsertProfile(ctx, userID, p); err != nil {
		logger.Fatal("storing the profile", zap.Error(err))
	}

	logger.Info("profile imported", zap.Int("attributes", len(values)))
}

func profileShow() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	db, err := store.Open(config.storePath(), logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer db.Close()

	userID, err := db.EnsureDefaultUser(ctx)
	if err != nil {
		logger.Fatal("ensuring the default user", zap.Error(err))
	}

	p, err := db.GetProfile(ctx, userID)
	if err != nil {
		logger.Fatal("loading the profile",
			zap.Error(err),
			zap.String("hint", "import one first with 'applymate profile import <file.yaml>'"),
		)
	}

	pretty, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		logger.Fatal("rendering the profile", zap.Error(err))
	}
	fmt.Println(string(pretty))
}

// validateProfile flags values that are unlikely to pass form validation on
// real application pages. Problems are warnings only: the user may know
// better.
func validateProfile(p *profile.Profile) []string {
	var warnings []string

	if p.Email != "" && (!strings.Contains(p.Email, "@") || strings.ContainsAny(p.Email, " \t")) {
		warnings = append(warnings, fmt.Sprintf("email %q does not look like an address", p.Email))
	}

	if p.Phone != "" && digitCount(p.Phone) < 7 {
		warnings = append(warnings, fmt.Sprintf("phone %q has fewer than 7 digits", p.Phone))
	}

	urls := map[string]string{
		"linkedin_url":  p.LinkedinURL,
		"github_url":    p.GithubURL,
		"portfolio_url": p.PortfolioURL,
	}
	for name, value := range urls {
		if value == "" {
			continue
		}
		if err := browser.ValidateURL(value); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s %q is not an http(s) url", name, value))
		}
	}

	if p.GPA < 0 || p.GPA > 5 {
		warnings = append(warnings, fmt.Sprintf("gpa %v is outside the usual 0-5 range", p.GPA))
	}

	return warnings
}

func digitCount(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}
