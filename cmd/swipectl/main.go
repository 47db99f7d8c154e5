package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oggyb/muzz-swipe/internal/client"
	"github.com/oggyb/muzz-swipe/internal/config"
	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/logger"
	"github.com/oggyb/muzz-swipe/internal/queue"
	"github.com/oggyb/muzz-swipe/internal/quota"
	"github.com/oggyb/muzz-swipe/internal/server"
	"github.com/oggyb/muzz-swipe/internal/swipe"
)

var rootCmd = &cobra.Command{
	Use:   "swipectl",
	Short: "swipectl - drive a swipe session against the matchmaking backend",
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start an interactive swipe session (pass, like, superlike, undo, peek, status)",
	RunE:  runSession,
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the user's quota account",
	RunE:  runAccount,
}

var (
	actorFlag   string
	addrFlag    string
	metricsFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&actorFlag, "user", "u", "", "User id to act as")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Backend address (defaults to GRPC_HOST:GRPC_PORT)")
	sessionCmd.Flags().StringVar(&metricsFlag, "metrics-addr", "", "Serve session metrics on this address (defaults to METRICS_ADDR, \"off\" disables)")
	_ = rootCmd.MarkPersistentFlagRequired("user")
	rootCmd.AddCommand(sessionCmd, accountCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *client.Client, func(), error) {
	cfg := config.New()
	logger.Init(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     logger.Format(cfg.Log.Format),
		Component:  "swipectl",
		WithSource: cfg.Log.Source,
		Output:     os.Stderr,
	})

	addr := addrFlag
	if addr == "" {
		addr = cfg.GRPC.Host + ":" + cfg.GRPC.Port
	}
	conn, err := client.Dial(addr)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, client.New(conn, actorFlag), func() { _ = conn.Close() }, nil
}

func runAccount(cmd *cobra.Command, args []string) error {
	_, c, closeConn, err := setup()
	if err != nil {
		return err
	}
	defer closeConn()

	acct, err := c.LoadAccount(cmd.Context())
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	printQuota(cmd.OutOrStdout(), acct.Quota)
	fmt.Fprintf(cmd.OutOrStdout(), "time zone: %s\n", acct.TimeZone)
	return nil
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, c, closeConn, err := setup()
	if err != nil {
		return err
	}
	defer closeConn()

	catalog, err := quota.LoadCatalog(cfg.Quota.PlansFile)
	if err != nil {
		return err
	}
	reserve, err := queue.LoadReserve(cfg.Quota.PlansFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := metricsAddr(cfg); addr != "" {
		go func() {
			logger.Info("serving session metrics", "addr", addr)
			if err := server.StartMetricsServer(ctx, addr); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	engine := swipe.New(swipe.Config{
		ActorID:        actorFlag,
		UndoDepth:      cfg.Engine.UndoDepth,
		PersistTimeout: cfg.Engine.PersistTimeout,
		Location:       cfg.Location(),
		Catalog:        catalog,
		Queue: queue.Options{
			BatchSize:    cfg.Engine.BatchSize,
			Threshold:    cfg.Engine.RefillThreshold,
			FetchTimeout: cfg.Engine.FetchTimeout,
			Reserve:      reserve,
		},
	}, c, c, c)
	defer engine.Close()

	if err := engine.Start(ctx); err != nil {
		return err
	}
	return repl(ctx, engine, cmd.InOrStdin(), cmd.OutOrStdout())
}

func metricsAddr(cfg *config.Config) string {
	switch metricsFlag {
	case "":
		return cfg.Metrics.Addr
	case "off":
		return ""
	}
	return metricsFlag
}

// repl feeds commands read from in to the engine's command loop and prints
// one line per resulting event. Each command waits for its event, so input
// is applied in order.
func repl(ctx context.Context, e *swipe.Engine, in io.Reader, out io.Writer) error {
	cmds := make(chan swipe.Command)
	served := make(chan error, 1)
	go func() { served <- e.Serve(ctx, cmds) }()

	send := func(cmd swipe.Command) error {
		select {
		case cmds <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case ev, ok := <-e.Events():
			if !ok {
				return errors.New("engine closed")
			}
			printEvent(out, ev)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	scanner := bufio.NewScanner(in)
	var err error
	fmt.Fprint(out, "> ")
loop:
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch word {
		case "":
		case "quit", "exit":
			break loop
		case "help":
			fmt.Fprintln(out, "commands: pass, like, superlike, undo, peek, refill, reconcile, status, quit")
		case "status":
			printStatus(out, e.Snapshot())
		case "peek", "undo", "refill", "reconcile":
			err = send(swipe.Command{Kind: swipe.CommandKind(word)})
		default:
			d, perr := domain.ParseDirection(word)
			if perr != nil {
				fmt.Fprintf(out, "unknown command %q (try help)\n", word)
				break
			}
			head, herr := peekHead(ctx, e)
			if herr != nil {
				fmt.Fprintf(out, "nothing to decide on: %v\n", herr)
				break
			}
			err = send(swipe.Command{Kind: swipe.CommandSubmit, Direction: d, ProfileID: head.ID})
		}
		if err != nil {
			break
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)

	close(cmds)
	if serr := <-served; err == nil && !errors.Is(serr, context.Canceled) {
		err = serr
	}
	if err == nil {
		err = scanner.Err()
	}
	return err
}

func peekHead(ctx context.Context, e *swipe.Engine) (domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return e.Peek(ctx)
}

func printEvent(out io.Writer, ev swipe.Event) {
	suffix := ""
	if ev.Degraded {
		suffix = " [offline profiles]"
	}

	switch ev.Command {
	case swipe.CommandSubmit:
		res := ev.Result
		if res.Outcome != swipe.OutcomeCommitted {
			fmt.Fprintf(out, "decision on %s rejected: %v%s\n", ev.ProfileID, res.Reason, suffix)
			return
		}
		match := ""
		if res.Decision.Matched {
			match = " - it's a match!"
		}
		fmt.Fprintf(out, "%s %s%s%s\n", res.Decision.Direction, ev.ProfileID, match, suffix)
	case swipe.CommandUndo:
		if err := ev.Result.Err(); err != nil {
			fmt.Fprintf(out, "undo: %v\n", err)
			return
		}
		fmt.Fprintf(out, "undid %s on %s%s\n", ev.Result.Decision.Direction, ev.ProfileID, suffix)
	case swipe.CommandPeek:
		if ev.Err != nil {
			fmt.Fprintf(out, "no profiles: %v%s\n", ev.Err, suffix)
			return
		}
		fmt.Fprintf(out, "next: %s%s\n", describe(*ev.Head), suffix)
	default:
		if ev.Err != nil {
			fmt.Fprintf(out, "%s: %v\n", ev.Command, ev.Err)
			return
		}
		fmt.Fprintf(out, "%s: ok%s\n", ev.Command, suffix)
	}
}

func describe(p domain.Profile) string {
	parts := []string{p.ID}
	if name := p.Attr("display_name"); name != "" {
		parts = append(parts, name)
	}
	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		if k != "display_name" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+p.Attributes[k])
	}
	return strings.Join(parts, " ")
}

func printStatus(out io.Writer, s swipe.Snapshot) {
	fmt.Fprintf(out, "state: %s  queue: %d/%d (remaining %d)  degraded: %t  undo: %d\n",
		s.State, s.Queue.Cursor, s.Queue.Length, s.Queue.Remaining, s.Queue.Degraded, s.UndoDepth)
	printQuota(out, s.Quota)
}

func printQuota(out io.Writer, q quota.State) {
	limit := fmt.Sprint(q.SwipeLimit)
	if q.Unlimited() {
		limit = "unlimited"
	}
	fmt.Fprintf(out, "plan: %s  swipes: %d/%s  superlikes: %d  day: %s\n",
		q.PlanTier, q.SwipesUsed, limit, q.SuperlikesAvailable, q.Date)
}
