package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"archivum/internal/validate"
)

func validateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <project-id>",
		Short: "Run consistency checks against a project's graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on warnings as well as errors")
	return cmd
}

func runValidate(cmd *cobra.Command, projectID string, strict bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	vocab, err := a.vocabulary()
	if err != nil {
		return err
	}

	db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	report, err := validate.Run(ctx, projectID, db, vocab)
	if err != nil {
		return err
	}

	if len(report.Issues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	sections := []struct {
		title    string
		severity validate.Severity
	}{
		{"Errors", validate.SeverityError},
		{"Warnings", validate.SeverityWarn},
		{"Notes", validate.SeverityInfo},
	}
	first := true
	for _, section := range sections {
		issues := filterIssues(report.Issues, section.severity)
		if len(issues) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(out)
		}
		first = false
		fmt.Fprintf(out, "%s (%d):\n", section.title, len(issues))
		printIssues(out, issues)
	}
	fmt.Fprintf(out, "\n%s\n", report.Summary())

	if report.HasErrors() || (strict && report.Count(validate.SeverityWarn) > 0) {
		return fmt.Errorf("validation failed: %s", report.Summary())
	}
	return nil
}

func filterIssues(issues []validate.Issue, severity validate.Severity) []validate.Issue {
	var out []validate.Issue
	for _, issue := range issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Entity
		switch {
		case location == "" && issue.RelationshipID != "":
			location = "relationship " + issue.RelationshipID
		case location == "":
			location = issue.EntityID
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
