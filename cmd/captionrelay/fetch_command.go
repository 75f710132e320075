package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"captionrelay/internal/api"
	"captionrelay/internal/language"
	"captionrelay/internal/transcript"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fetch VIDEO_ID",
		Short: "Fetch one transcript through the configured mirrors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := strings.TrimSpace(args[0])
			if videoID == "" {
				return errors.New("video id must not be empty")
			}
			logger, err := ctx.newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			service, err := ctx.newService(logger)
			if err != nil {
				return err
			}

			result, err := service.Transcript(cmd.Context(), videoID)
			if err != nil {
				return err
			}
			if asJSON {
				if err := writeJSON(cmd, api.FromResult(videoID, result)); err != nil {
					return err
				}
				if !result.OK() {
					return fmt.Errorf("no transcript for %s", videoID)
				}
				return nil
			}
			if !result.OK() {
				printAttempts(cmd.ErrOrStderr(), result.Attempts)
				return fmt.Errorf("no transcript for %s: %s", videoID, result.Reason())
			}
			if isTerminal(cmd.OutOrStdout()) {
				header := fmt.Sprintf("source: %s", result.Source)
				if result.Language != "" {
					header += fmt.Sprintf("  language: %s (%s)", result.Language, language.DisplayName(result.Language))
				}
				fmt.Fprintln(cmd.ErrOrStderr(), header)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the detailed result as JSON")
	return cmd
}

func printAttempts(w io.Writer, attempts []transcript.Attempt) {
	for i, attempt := range api.FromAttempts(attempts) {
		fmt.Fprintf(w, "  %d. %s (%s): %s\n", i+1, attempt.Endpoint, attempt.Kind, attempt.Message)
	}
}
