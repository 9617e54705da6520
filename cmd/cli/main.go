// Command cli is an operator tool for driving the personalization engine
// directly against the database, without going through the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/farmstand/backend/internal/database"
	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/personalization"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var engine *personalization.Service

func main() {
	root := &cobra.Command{
		Use:   "farmstand",
		Short: "Operator tooling for the personalization engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if err := logger.Initialize(getEnv("LOG_LEVEL", "warn"), ""); err != nil {
				return err
			}
			if err := database.Initialize(); err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			engine = personalization.NewService(database.DB)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			database.Close()
			logger.Close()
		},
	}

	root.AddCommand(learnCmd(), recalculateCmd(), cleanupCmd(), insightsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func learnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn <user-id>",
		Short: "Rebuild a user's preference profile from their interaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pref, err := engine.LearnPreferences(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(pref)
		},
	}
}

func recalculateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate <user-id>",
		Short: "Recompute all of a user's expired scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refreshed, err := engine.RecalculateExpired(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("recalculated %d scores\n", refreshed)
			return nil
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired scores across all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := engine.CleanupExpired(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d expired scores\n", deleted)
			return nil
		},
	}
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights <user-id>",
		Short: "Print a user's behavioral profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			insights, err := engine.GetInsights(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(insights)
		},
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
