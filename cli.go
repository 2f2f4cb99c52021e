package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/timeutil"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Run the keyword fallback classifier on a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := intent.Classify(strings.Join(args, " "))
			out, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newResolveCommand() *cobra.Command {
	var date, clock, now, tz string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a date and time phrase to the event window a calendar action would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, fellBack := timeutil.ResolveLocation(tz)
			if fellBack && tz != "" {
				return fmt.Errorf("unknown time zone %q", tz)
			}

			ref := time.Now().In(loc)
			if now != "" {
				parsed, err := timeutil.ParseDateTime(now, loc)
				if err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
				ref = parsed
			}

			start, end := timeutil.ResolveEventWindow(date, clock, ref)
			fmt.Fprintf(cmd.OutOrStdout(), "now:   %s\nstart: %s\nend:   %s\n",
				ref.Format(time.RFC3339), start.Format(time.RFC3339), end.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", `date phrase, e.g. "tomorrow", "next friday", "nov 15"`)
	cmd.Flags().StringVar(&clock, "time", "", `time phrase, e.g. "3pm", "14:30", "two pm"`)
	cmd.Flags().StringVar(&now, "now", "", "reference instant (RFC 3339 or YYYY-MM-DD HH:MM); defaults to the current time")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA time zone for --now and the result; defaults to the process zone")
	return cmd
}
