package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/logger"
	"github.com/applymate/applymate/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded application attempts",
	Run: func(_ *cobra.Command, _ []string) {
		historyList()
	},
}

var historyMarkCmd = &cobra.Command{
	Use:   "mark <id> <draft|submitted|skipped>",
	Short: "Update the status of a recorded attempt",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		historyMark(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyMarkCmd)
}

func historyList() {
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

	applications, err := db.ListApplications(ctx, userID)
	if err != nil {
		logger.Fatal("listing applications", zap.Error(err))
	}

	if len(applications) == 0 {
		logger.Info("no application attempts recorded yet")
		return
	}

	for _, app := range applications {
		fmt.Printf("%d\t%s\t%s\t%s\n",
			app.ID, app.Status, app.CreatedAt.Format("2006-01-02 15:04"), app.JobURL)
	}
}

func historyMark(rawID, rawStatus string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		logger.Fatal("parsing the application id", zap.String("id", rawID), zap.Error(err))
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

	if err := db.UpdateApplicationStatus(ctx, id, store.Status(rawStatus)); err != nil {
		logger.Fatal("updating the application status",
			zap.Int64("id", id),
			zap.String("status", rawStatus),
			zap.Error(err),
		)
	}

	logger.Info("application status updated",
		zap.Int64("id", id),
		zap.String("status", rawStatus),
	)
}
