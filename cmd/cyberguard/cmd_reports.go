package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cyberguard/internal/model"
)

func newReportsCmd(c *cli) *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Submit incident reports and follow their progress",
	}

	var flaggedOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List incident reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireUser(); err != nil {
				return err
			}
			if err := c.app.Reports.Load(cmd.Context()); err != nil {
				return err
			}
			if flaggedOnly {
				renderReports(cmd.OutOrStdout(), c.app.Reports.Flagged())
				return nil
			}
			renderReports(cmd.OutOrStdout(), c.app.Reports.Reports())
			return nil
		},
	}
	listCmd.Flags().BoolVar(&flaggedOnly, "flagged", false, "Only flagged reports")

	reportsCmd.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "show <report-id>",
			Short: "Show a report with its progress log",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				r, err := c.app.Reports.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderReport(cmd.OutOrStdout(), r)
				return nil
			},
		},
		newSubmitReportCmd(c),
		&cobra.Command{
			Use:   "flag <report-id>",
			Short: "Flag a report for review",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Reports.Flag(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "delete <report-id>",
			Short: "Delete a report (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Reports.Delete(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "react <report-id> <emoji>",
			Short: "React to a report with an emoji",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Reports.React(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "progress <report-id> <message>",
			Short: "Record review progress on a report (moderator)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Reports.UpdateProgress(cmd.Context(), args[0], strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "update <report-id> <message>",
			Short: "Append an update to a report's timeline (moderator)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Reports.AddUpdate(cmd.Context(), args[0], strings.Join(args[1:], " "))
			},
		},
	)
	return reportsCmd
}

func newSubmitReportCmd(c *cli) *cobra.Command {
	var in model.ReportInput
	cmd := &cobra.Command{
		Use:   "submit <description>",
		Short: "Report an incident, no account needed",
		Long: `Submit an incident report. Reports sent while signed out, or with
--anonymous, carry no identity.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Description = strings.Join(args, " ")
			r, err := c.app.Reports.Submit(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %s submitted\n", r.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Optional title")
	cmd.Flags().StringVar(&in.IncidentType, "type", "", "Incident type, e.g. cyberbullying or verbal")
	cmd.Flags().StringVar(&in.Platform, "platform", "", "Where it happened, e.g. Instagram or school")
	cmd.Flags().StringVar(&in.Severity, "severity", model.SeverityMedium, "low, medium or high")
	cmd.Flags().StringVar(&in.YourRole, "role", "target", "target, bystander, reporter or other")
	cmd.Flags().StringVar(&in.Date, "date", "", "Date of the incident (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Location, "location", "", "Location")
	cmd.Flags().StringVar(&in.Evidence, "evidence", "", "Links or notes about evidence")
	cmd.Flags().BoolVar(&in.Anonymous, "anonymous", false, "Do not attach your identity")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}
