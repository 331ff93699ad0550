package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show a submitter's moderation history summary",
		RunE:  runAnalytics,
	}

	cmd.Flags().String("user", "", "submitter email")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")

	cfg, store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	summary, err := buildEngine(cfg, store).Analytics(ctx, user)
	if err != nil {
		return err
	}

	fmt.Printf("submitter:      %s\n", summary.Submitter)
	fmt.Printf("total requests: %d\n", summary.TotalRequests)

	if len(summary.Breakdown) == 0 {
		fmt.Println("breakdown:      (no completed requests)")
		return nil
	}

	labels := make([]string, 0, len(summary.Breakdown))
	for label := range summary.Breakdown {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Println("breakdown:")
	for _, label := range labels {
		fmt.Printf("  %-12s %d\n", label, summary.Breakdown[label])
	}
	return nil
}
