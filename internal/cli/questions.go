package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-round/internal/domain"
	"quiz-round/internal/infra/csvfile"
	pgstore "quiz-round/internal/infra/postgres"
)

// NewQuestionsCmd groups question set management.
func NewQuestionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage question sets stored in postgres",
	}
	cmd.AddCommand(newQuestionsImportCmd(configPath))
	return cmd
}

func newQuestionsImportCmd(configPath *string) *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Store a CSV question file as a named set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if set == "" {
				return errors.New("--set is required")
			}
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errPostgresRequired
			}

			questions, err := csvfile.NewLoader(logger).LoadQuestions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("%s: %w", args[0], domain.ErrNoQuestions)
			}

			b, err := openBackends(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := pgstore.NewQuestionSetStore(b.pool).SaveSet(cmd.Context(), set, questions); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions into set %q.\n", len(questions), set)
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "question set name")
	return cmd
}
