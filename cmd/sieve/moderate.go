package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sievemod/sieve/internal/model"
)

func moderateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderate",
		Short: "Moderate one piece of content from the command line",
		Long: `Submit text or an image URL through the full moderation pipeline
without running the HTTP server. Exactly one of --text or --image-url is
required.`,
		RunE: runModerate,
	}

	cmd.Flags().String("email", "", "submitter email")
	cmd.Flags().String("text", "", "text content to moderate")
	cmd.Flags().String("image-url", "", "image URL to moderate")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runModerate(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	text, _ := cmd.Flags().GetString("text")
	imageURL, _ := cmd.Flags().GetString("image-url")

	var kind model.ContentKind
	var content string
	switch {
	case text != "" && imageURL != "":
		return fmt.Errorf("--text and --image-url are mutually exclusive")
	case text != "":
		kind, content = model.KindText, text
	case imageURL != "":
		kind, content = model.KindImage, imageURL
	default:
		return fmt.Errorf("one of --text or --image-url is required")
	}

	cfg, store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	eng := buildEngine(cfg, store)
	submission, err := eng.Submit(ctx, email, kind, content)
	if err != nil {
		return err
	}

	fmt.Printf("request:        %s\n", submission.RequestID)
	fmt.Printf("status:         %s\n", submission.Status)
	fmt.Printf("classification: %s (confidence %.2f, via %s)\n",
		submission.Label, submission.Confidence, submission.Provider)
	if submission.Reasoning != "" {
		fmt.Printf("reasoning:      %s\n", submission.Reasoning)
	}

	// Let in-flight notifications finish before the process exits.
	if submission.NotifyDone != nil {
		<-submission.NotifyDone
	}
	return nil
}
