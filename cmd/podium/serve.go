package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gridrival/podium/infrastructure/middleware"
	"github.com/gridrival/podium/infrastructure/roster"
	"github.com/gridrival/podium/infrastructure/storage"
	"github.com/gridrival/podium/internal/application"
	"github.com/gridrival/podium/internal/ports"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a line-oriented session with hot roster reload and a metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runServe(parent context.Context, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ros, err := roster.NewFileRoster(cfg.RosterFile, roster.WithLogger(logger.Named("roster")))
	if err != nil {
		return err
	}
	if err := ros.Watch(); err != nil {
		return err
	}
	defer ros.Stop()

	var store ports.StateStore
	if cfg.Backend == "sqlite" {
		s, err := storage.NewSQLiteStore(ctx, cfg.DataFile)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	} else {
		s, err := storage.NewFileStore(cfg.DataFile)
		if err != nil {
			return err
		}
		store = s
	}

	engine, err := application.NewEngine(ctx, store, ros,
		application.WithLogger(logger.Named("engine")),
		application.WithMetrics(middleware.NewPrometheusMetrics()))
	if err != nil {
		return err
	}

	var api ports.ContestEngine = engine
	if cfg.Throttle.PerSecond > 0 {
		burst := cfg.Throttle.Burst
		if burst < 1 {
			burst = 1
		}
		api = middleware.Throttle(api, rate.Limit(cfg.Throttle.PerSecond), burst)
	}

	// The session ending is a shutdown signal for the whole group: the
	// errgroup alone only cancels on error, and quit returns nil.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		g.Go(func() error {
			logger.Info("metrics endpoint listening", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return sessionLoop(ctx, api, ros, in, out)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// sessionLoop reads one command per line and dispatches it to the engine
// until input ends or the context is canceled.
func sessionLoop(ctx context.Context, api ports.ContestEngine, ros *roster.FileRoster, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "podium session ready; type 'help' for commands, 'quit' to exit")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if done := dispatchLine(ctx, api, ros, out, line); done {
				return nil
			}
		}
	}
}

func dispatchLine(ctx context.Context, api ports.ContestEngine, ros *roster.FileRoster, out io.Writer, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprint(out, sessionHelp)
	case "open":
		if len(fields) != 2 {
			err = fmt.Errorf("usage: open <round-name>")
			break
		}
		if err = api.OpenRound(ctx, fields[1]); err == nil {
			fmt.Fprintf(out, "Round %q is open for predictions.\n", fields[1])
		}
	case "submit":
		// submit <round> <participant-id> <display-name> <id1..id5>
		if len(fields) != 9 {
			err = fmt.Errorf("usage: submit <round> <participant-id> <display-name> <id1> <id2> <id3> <id4> <id5>")
			break
		}
		var ids []int
		if ids, err = parseIDs(fields[4:]); err != nil {
			break
		}
		sub, serr := api.Submit(ctx, fields[1], fields[2], fields[3], ids)
		if serr != nil {
			err = serr
			break
		}
		fmt.Fprintf(out, "Prediction recorded:\n%s", formatPicks(sub.Picks))
	case "close":
		if len(fields) != 7 {
			err = fmt.Errorf("usage: close <round> <id1> <id2> <id3> <id4> <id5>")
			break
		}
		var ids []int
		if ids, err = parseIDs(fields[2:]); err != nil {
			break
		}
		results, cerr := api.Close(ctx, fields[1], ids)
		if cerr != nil {
			err = cerr
			break
		}
		fmt.Fprint(out, formatResults(results))
	case "clear":
		name, cerr := api.ClearActive(ctx)
		if cerr != nil {
			err = cerr
			break
		}
		fmt.Fprintf(out, "Cleared active round %q.\n", name)
	case "status":
		status, serr := api.Status(ctx)
		if serr != nil {
			err = serr
			break
		}
		fmt.Fprintf(out, "Active round: %s, %d submission(s)\n", status.RoundName, len(status.Submitted))
	case "leaderboard":
		entries := api.Leaderboard(ctx)
		if len(entries) == 0 {
			fmt.Fprintln(out, "The leaderboard is empty.")
			break
		}
		for i, e := range entries {
			fmt.Fprintf(out, "%d. %s: %d points (%d rounds)\n", i+1, e.DisplayName, e.TotalPoints, e.RoundsScored)
		}
	case "history":
		if len(fields) == 2 {
			results, herr := api.RaceHistoryDetails(ctx, fields[1])
			if herr != nil {
				err = herr
				break
			}
			fmt.Fprint(out, formatResults(results))
			break
		}
		names := api.RaceHistory(ctx)
		if len(names) == 0 {
			fmt.Fprintln(out, "No completed rounds.")
			break
		}
		for _, name := range names {
			fmt.Fprintf(out, "- %s\n", name)
		}
	case "drivers":
		for _, e := range ros.All() {
			fmt.Fprintf(out, "#%d: %s\n", e.ID, e.Name)
		}
	default:
		err = fmt.Errorf("unknown command %q; type 'help'", fields[0])
	}

	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	return false
}

const sessionHelp = `commands:
  open <round>                                     open a new round
  submit <round> <id> <name> <e1> <e2> <e3> <e4> <e5>  submit a prediction
  close <round> <e1> <e2> <e3> <e4> <e5>           close and score the round
  clear                                            delete the active round
  status                                           show the active round
  leaderboard                                      show standings
  history [round]                                  closed rounds, or one round's detail
  drivers                                          list the roster
  quit                                             exit
`
