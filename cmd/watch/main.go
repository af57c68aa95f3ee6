// FILE: cmd/watch/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bidash/internal/config"
	"bidash/internal/dashboard"
	"bidash/internal/fetch"
	"bidash/internal/poller"
	"bidash/internal/reports"
)

const clearScreen = "\033[H\033[2J"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are shared by every report subcommand.
type options struct {
	baseURL  string
	interval time.Duration
	timeout  time.Duration
	width    int
	logFile  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "watch",
		Short:         "Poll a report endpoint and render it in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("base-url") {
				opts.baseURL = cfg.BackendBaseURL
			}
			if !flags.Changed("interval") {
				opts.interval = cfg.RefreshInterval()
			}
			if !flags.Changed("timeout") {
				opts.timeout = cfg.FetchTimeout()
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.baseURL, "base-url", "", "report server base URL (default $BACKEND_BASE_URL)")
	pf.DurationVar(&opts.interval, "interval", 0, "refresh interval (default $REFRESH_SECONDS)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (default $FETCH_TIMEOUT_MS)")
	pf.IntVar(&opts.width, "width", terminalWidth(), "render width in columns")
	pf.StringVar(&opts.logFile, "log-file", "", "write poller logs to this file")

	cmd.AddCommand(
		newStatusCmd(opts),
		newDetailCmd(opts),
		newFulfillmentCmd(opts),
		newProductivityCmd(opts),
		newReceptionsCmd(opts),
	)
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	var sector string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "KPI cards of a sector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resource := "/status?" + url.Values{"sector": {sector}}.Encode()
			return watch(cmd.Context(), opts, resource, (*dashboard.Renderer).Status)
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "sector to watch")
	_ = cmd.MarkFlagRequired("sector")
	return cmd
}

func newDetailCmd(opts *options) *cobra.Command {
	var sector string
	cmd := &cobra.Command{
		Use:   "detail",
		Short: "Detail tables of a sector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resource := "/detail?" + url.Values{"sector": {sector}}.Encode()
			return watch(cmd.Context(), opts, resource, (*dashboard.Renderer).Detail)
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "sector to watch")
	_ = cmd.MarkFlagRequired("sector")
	return cmd
}

func newFulfillmentCmd(opts *options) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "fulfillment",
		Short: "Order fulfillment over a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			setIf(q, "fechaInicio", from)
			setIf(q, "fechaFin", to)
			return watch(cmd.Context(), opts, withQuery("/fulfillment", q), (*dashboard.Renderer).Fulfillment)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default: rolling window)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default: today)")
	return cmd
}

func newProductivityCmd(opts *options) *cobra.Command {
	var from, to, operation string
	cmd := &cobra.Command{
		Use:     "productividad",
		Aliases: []string{"productivity"},
		Short:   "Picking productivity per day and per operator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{"operacion": {operation}, "from": {from}, "to": {to}}
			return watch(cmd.Context(), opts, withQuery("/productividad", q), (*dashboard.Renderer).Productivity)
		},
	}
	cmd.Flags().StringVar(&operation, "operacion", reports.OperationPicking, "operation to measure")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "day after the last one, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newReceptionsCmd(opts *options) *cobra.Command {
	var from, to, supplier, sku string
	cmd := &cobra.Command{
		Use:     "recepciones",
		Aliases: []string{"receptions"},
		Short:   "Received units per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{"fechaInicio": {from}, "fechaFin": {to}}
			setIf(q, "proveedor", supplier)
			setIf(q, "sku", sku)
			return watch(cmd.Context(), opts, withQuery("/recepciones", q), (*dashboard.Renderer).Receptions)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYYMMDD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYYMMDD")
	cmd.Flags().StringVar(&supplier, "proveedor", "", "supplier substring filter")
	cmd.Flags().StringVar(&sku, "sku", "", "SKU substring filter")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// watch polls resource and redraws the screen until interrupted.
func watch[T any](parent context.Context, opts *options, resource string, render func(*dashboard.Renderer, poller.Snapshot[T]) string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := newLogger(opts.logFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// the poller owns the per-attempt timeout, so the client has none
	client := fetch.NewClient(fetch.ClientOptions{UserAgent: "bidash-watch", Logger: log})
	p := poller.New(func(ctx context.Context, res string) (T, error) {
		var out T
		err := client.GetJSON(ctx, opts.baseURL+res, &out)
		return out, err
	}, poller.Config{Interval: opts.interval, Timeout: opts.timeout, Logger: log})
	defer p.Close()

	frames := latest(p)
	p.SetResource(resource)

	r := dashboard.New(opts.width, isTerminal(os.Stdout), nil)
	return loop(ctx, os.Stdout, frames, func(s poller.Snapshot[T]) string { return render(r, s) })
}

// latest subscribes to p and keeps only the newest undelivered snapshot.
func latest[T any](p *poller.Poller[T]) <-chan poller.Snapshot[T] {
	ch := make(chan poller.Snapshot[T], 1)
	p.OnChange(func(s poller.Snapshot[T]) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch
}

// loop redraws on every snapshot and once a second so relative times move.
func loop[T any](ctx context.Context, w io.Writer, frames <-chan poller.Snapshot[T], draw func(poller.Snapshot[T]) string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last poller.Snapshot[T]
	have := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-frames:
			last, have = s, true
		case <-ticker.C:
			if !have {
				continue
			}
		}
		if _, err := io.WriteString(w, clearScreen+draw(last)); err != nil {
			return err
		}
	}
}

func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 100
}
