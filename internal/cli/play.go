package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quiz-round/internal/app"
	"quiz-round/internal/config"
	"quiz-round/internal/domain"
	"quiz-round/internal/metrics"
	"quiz-round/internal/timer"
)

const (
	playLeaderboardRows = 10
	answerPrompt        = "Answer (A-D or option text): "
)

type playOptions struct {
	questions   string
	set         string
	demo        bool
	user        string
	seconds     int
	metricsAddr string
}

// NewPlayCmd runs an interactive round on the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a timed quiz round",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayCmd(cmd.Context(), *configPath, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.questions, "questions", "questions.csv", "CSV question file")
	cmd.Flags().StringVar(&opts.set, "set", "", "named question set stored in postgres")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "use the built-in sample questions")
	cmd.Flags().StringVar(&opts.user, "user", "", "username (prompted when empty)")
	cmd.Flags().IntVar(&opts.seconds, "seconds", 0, "round length in seconds (overrides config)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while playing")
	return cmd
}

func runPlayCmd(ctx context.Context, path string, opts playOptions, in io.Reader, out io.Writer) error {
	cfg, logger, err := setup(path)
	if err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	loader, source, err := b.questionLoader(opts, logger)
	if err != nil {
		return err
	}

	sessionOpts := sessionOptions(cfg, opts.seconds, logger)

	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		sessionOpts = append(sessionOpts, app.WithMetrics(metrics.New(reg)))
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	return runPlay(ctx, in, out, playDeps{
		Loader:   loader,
		Source:   source,
		Store:    b.results,
		Timer:    timer.New(),
		Username: opts.user,
		Options:  sessionOpts,
		Logger:   logger,
	})
}

// sessionOptions applies config to a session. secondsFlag overrides the
// configured round length when positive.
func sessionOptions(cfg config.Config, secondsFlag int, logger zerolog.Logger) []app.Option {
	seconds := cfg.Quiz.RoundSeconds
	if secondsFlag > 0 {
		seconds = secondsFlag
	}
	return []app.Option{
		app.WithRoundSeconds(seconds),
		app.WithSaveTimeout(config.Duration(cfg.Quiz.SaveTimeout, 5*time.Second)),
		app.WithLogger(logger),
	}
}

type playDeps struct {
	Loader   app.QuestionLoader
	Source   string
	Store    app.ResultStore
	Timer    app.Timer
	Username string
	Options  []app.Option
	Logger   zerolog.Logger
}

// runPlay drives rounds from line input until the player declines a replay
// or input ends. Closing input mid-round ends the round as if time ran out.
func runPlay(ctx context.Context, in io.Reader, out io.Writer, deps playDeps) error {
	w := &lockedWriter{w: out}

	questions, err := deps.Loader.LoadQuestions(ctx, deps.Source)
	if err != nil {
		return fmt.Errorf("load questions from %q: %w", deps.Source, err)
	}
	if len(questions) == 0 {
		fmt.Fprintf(w, "No questions found in %s.\n", deps.Source)
		return domain.ErrNoQuestions
	}

	finished := make(chan app.Event, 1)
	observer := func(ev app.Event) {
		render(w, ev)
		if ev.Kind == app.EventFinished {
			select {
			case finished <- ev:
			default:
			}
		}
	}
	opts := append(append([]app.Option(nil), deps.Options...), app.WithObserver(observer))
	runner := app.NewRunner(deps.Timer, deps.Store, opts...)

	runCtx, cancel := context.WithCancel(ctx)
	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(runCtx) }()
	defer func() {
		cancel()
		<-runErr
	}()

	if err := runner.Load(ctx, questions); err != nil {
		return err
	}

	lines := readLines(runCtx, in)
	username := strings.TrimSpace(deps.Username)
	for {
		for username == "" {
			fmt.Fprint(w, "Username: ")
			line, ok := <-lines
			if !ok {
				return nil
			}
			if username = strings.TrimSpace(line); username == "" {
				fmt.Fprintln(w, "Username required to start the quiz.")
			}
		}

		if err := runner.Start(ctx, username); err != nil {
			return err
		}
		if err := playRound(ctx, w, runner, lines, finished); err != nil {
			return err
		}

		entries, err := deps.Store.FetchRanked(ctx)
		if err != nil {
			deps.Logger.Error().Err(err).Msg("leaderboard fetch failed")
			fmt.Fprintln(w, "Leaderboard unavailable.")
		} else {
			fmt.Fprintln(w)
			writeLeaderboard(w, entries, playLeaderboardRows)
		}

		fmt.Fprint(w, "\nPlay again? [y/N] ")
		line, ok := <-lines
		if !ok || !strings.EqualFold(strings.TrimSpace(line), "y") {
			return nil
		}
	}
}

func playRound(ctx context.Context, w io.Writer, runner *app.Runner, lines <-chan string, finished <-chan app.Event) error {
	for {
		// A line that finished the round has already queued the event.
		select {
		case <-finished:
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-finished:
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				if err := runner.Expire(ctx); err != nil && !errors.Is(err, domain.ErrStorage) {
					return err
				}
				continue
			}
			if err := handleLine(ctx, w, runner, line); err != nil {
				return err
			}
		}
	}
}

func handleLine(ctx context.Context, w io.Writer, runner *app.Runner, line string) error {
	snap, err := runner.Snapshot(ctx)
	if err != nil {
		return err
	}
	switch snap.State {
	case app.StateRunning:
		if strings.TrimSpace(line) == "" {
			fmt.Fprint(w, answerPrompt)
			return nil
		}
		_, _, err = runner.Submit(ctx, line)
	case app.StateAnswered:
		err = runner.Advance(ctx)
	}
	// Save failures are reported with the finish event.
	if errors.Is(err, domain.ErrStorage) {
		return nil
	}
	return err
}

func render(w io.Writer, ev app.Event) {
	switch ev.Kind {
	case app.EventQuestion:
		fmt.Fprintf(w, "\nQuestion %d/%d  (%ds left, score %d)\n%s\n", ev.Index+1, ev.Total, ev.Remaining, ev.Score, ev.Question.Prompt())
		for i, opt := range ev.Question.Options() {
			fmt.Fprintf(w, "  %s) %s\n", domain.OptionLetter(i), opt)
		}
		fmt.Fprint(w, answerPrompt)
	case app.EventAnswered:
		fb := ev.Feedback
		if fb.Correct {
			fmt.Fprintln(w, "Correct!")
		} else if fb.CorrectOption >= 0 {
			fmt.Fprintf(w, "Wrong. The answer was %s) %s\n", domain.OptionLetter(fb.CorrectOption), fb.CorrectText)
		} else {
			fmt.Fprintf(w, "Wrong. The answer was %s\n", fb.CorrectText)
		}
		if ev.Index+1 < ev.Total {
			fmt.Fprint(w, "Press Enter for the next question.")
		} else {
			fmt.Fprint(w, "Press Enter to finish.")
		}
	case app.EventTick:
		if ev.Remaining > 0 && (ev.Remaining%10 == 0 || ev.Remaining <= 5) {
			fmt.Fprintf(w, "\n[%ds left]\n", ev.Remaining)
		}
	case app.EventFinished:
		if ev.Reason == app.ReasonExpired {
			fmt.Fprint(w, "\nTime's up!")
		}
		fmt.Fprintf(w, "\nQuiz Complete! Final Score: %d/%d\n", ev.Result.Score, ev.Result.Total)
		if ev.Err != nil {
			fmt.Fprintf(w, "Result not saved: %v\n", ev.Err)
		}
	}
}

// readLines delivers input lines until EOF or ctx is done; the channel is
// then closed.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
