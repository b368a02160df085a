package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/crowdreplay/internal/config"
)

// ValidationIssue is one problem found in a config file.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate an experiment config file",
		Long: `Validate an experiment configuration without running it.

YAML files are checked for unknown fields, CUE and JSON files against the
experiment schema, and the merged result against every field constraint.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "config file not found", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return outputValidationErrors(formatter, issuesFrom(err))
	}

	formatter.VerboseLog("%s: subject %d, trial %d, %d avatar(s), %d goal(s)",
		path, cfg.Subject, cfg.Trial, cfg.Avatars, len(cfg.GoalPositions()))
	return outputValidateSuccess(formatter, path)
}

// issuesFrom converts a config.Load error into validation issues.
func issuesFrom(err error) []ValidationIssue {
	fes := config.FieldErrors(err)
	if len(fes) == 0 {
		return []ValidationIssue{{Field: "config", Message: err.Error()}}
	}
	issues := make([]ValidationIssue, len(fes))
	for i, fe := range fes {
		issues[i] = ValidationIssue{Field: fe.Field, Message: fe.Message}
		if fe.Pos.IsValid() {
			issues[i].Line = fe.Pos.Line()
			issues[i].Column = fe.Pos.Column()
		}
	}
	return issues
}

func outputValidateSuccess(formatter *OutputFormatter, path string) error {
	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Valid: true}, nil)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", path)
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if formatter.IsJSON() {
		resp := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    ErrCodeConfig,
				Message: issues[0].Message,
			},
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Field, issue.Message)
	}
	return failure
}
