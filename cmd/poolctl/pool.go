package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyiku/caritas-study-back/internal/model"
	"github.com/kyiku/caritas-study-back/internal/pool"
	"github.com/kyiku/caritas-study-back/internal/util"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pool statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := openPool(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p.Summary())
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the whole pool document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := openPool(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p.Store().Load())
		},
	}
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add problems from a JSON array file",
		Long: "import reads a JSON array of math or english problems and adds each one to the pool.\n" +
			"Problems already in the pool are reported as failures and left untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			p, _, err := openPool(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			results, err := importProblems(p, subject, data)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}

			added := 0
			for _, r := range results {
				if r.Success {
					added++
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d/%d problems added\n", added, len(results))
			if added == 0 && len(results) > 0 {
				return fmt.Errorf("no problems were added")
			}
			return nil
		},
	}
	cmd.Flags().String("subject", model.SubjectMath, "Problem subject: math or english")
	return cmd
}

func importProblems(p *pool.Pool, subject string, data []byte) ([]pool.InsertResult, error) {
	switch subject {
	case model.SubjectMath:
		var problems []model.MathProblem
		if err := json.Unmarshal(data, &problems); err != nil {
			return nil, fmt.Errorf("invalid math problem list: %w", err)
		}
		for i := range problems {
			problems[i].Grade = util.NormalizeKey(problems[i].Grade)
			problems[i].Unit = util.NormalizeKey(problems[i].Unit)
			problems[i].Level = util.NormalizeKey(problems[i].Level)
		}
		return p.InsertMathBatch(problems), nil
	case model.SubjectEnglish:
		var problems []model.EnglishProblem
		if err := json.Unmarshal(data, &problems); err != nil {
			return nil, fmt.Errorf("invalid english problem list: %w", err)
		}
		for i := range problems {
			problems[i].Word = strings.TrimSpace(problems[i].Word)
			problems[i].Grade = util.NormalizeKey(problems[i].Grade)
			problems[i].Level = util.NormalizeKey(problems[i].Level)
		}
		return p.InsertEnglishBatch(problems), nil
	default:
		return nil, fmt.Errorf("unknown subject %q (want math or english)", subject)
	}
}
