package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/config"
	"quiz-conductor/internal/domain"
)

var errNoQuizStore = errors.New("progress reads stored quizzes; configure postgres.url (or DATABASE_URL)")

// NewProgressCmd prints the host view of one quiz.
func NewProgressCmd(configPath *string) *cobra.Command {
	var quizID, host string
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show who is taking a quiz and who has finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			setupLogger(cfg)
			if err := requireQuizStore(cfg); err != nil {
				return err
			}

			s, err := buildStores(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer s.Close()

			monitor := app.NewHostMonitor(s.quizzes, s.tracker, s.results)
			progress, err := monitor.Progress(cmd.Context(), host, quizID)
			if err != nil {
				return err
			}
			return printProgress(cmd.OutOrStdout(), progress)
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	cmd.Flags().StringVar(&host, "host", "", "username of the quiz host")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

// requireQuizStore rejects configs where quizzes would only live in this process.
func requireQuizStore(cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return errNoQuizStore
	}
	return nil
}

// printProgress keeps colour out of aligned cells; only section titles and the
// unterminated last column are coloured.
func printProgress(out io.Writer, p domain.Progress) error {
	bold := color.New(color.Bold)
	fmt.Fprintf(out, "%s %s (%s) at %s\n\n", bold.Sprint("Quiz"), p.Topic, p.QuizID, p.GeneratedAt.Format(time.RFC3339))

	bold.Fprintln(out, "Active now")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tSTARTED\tLEFT")
	if len(p.ActiveNow) == 0 {
		fmt.Fprintln(w, "-\t-\t-")
	}
	for _, s := range p.ActiveNow {
		left := fmt.Sprintf("%ds", s.TimeLeftSeconds)
		if s.Overdue {
			left = color.YellowString("overdue")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.StudentUsername, s.StartedAt.Format(time.Kitchen), left)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	bold.Fprintln(out, "Completed")
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tSCORE\tSUBMITTED")
	if len(p.Completed) == 0 {
		fmt.Fprintln(w, "-\t-\t-")
	}
	for _, r := range p.Completed {
		fmt.Fprintf(w, "%s\t%d/%d\t%s\n", r.StudentUsername, r.Score, r.TotalQuestions, r.SubmittedAt.Format(time.Kitchen))
	}
	return w.Flush()
}
