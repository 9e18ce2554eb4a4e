package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mtf-simulator/internal/collector"
	"mtf-simulator/internal/logger"
	"mtf-simulator/internal/report"
	"mtf-simulator/internal/types"
	"mtf-simulator/internal/web"
)

const shutdownTimeout = 10 * time.Second

var errNonFinite = errors.New("inputs produce values too large to represent as JSON")

type cli struct {
	out io.Writer
	// diag receives logs and exported spans.
	diag       io.Writer
	configPath string
	sys        *system
}

func newRootCmd(out, diag io.Writer) *cobra.Command {
	c := &cli{out: out, diag: diag}

	rootCmd := &cobra.Command{
		Use:   "mtfsim",
		Short: "Compare holding a stock outright (CNC) against margin trading funding (MTF)",
		Long: `mtfsim computes the costs, breakeven and returns of a single trade
financed either fully in cash or with broker-funded leverage, and
recommends the cheaper mode.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "config.yaml", "path to the YAML config file")

	rootCmd.AddCommand(c.serveCmd(), c.simulateCmd(), c.sweepCmd())
	return rootCmd
}

// withSystem initializes the system before run and flushes traces after
// it, including when run fails.
func (c *cli) withSystem(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		sys, err := initializeSystem(c.configPath, c.diag)
		if err != nil {
			return err
		}
		c.sys = sys
		defer sys.close(context.Background())
		return run(cmd, args)
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive simulator page and JSON API",
		Args:  cobra.NoArgs,
		RunE: c.withSystem(func(cmd *cobra.Command, args []string) error {
			cfg := c.sys.cfg
			srv, err := web.New(web.Config{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
				Simulator:    c.sys.sim,
				Collector:    c.sys.collector,
				Defaults:     cfg.DefaultParameters(),
				Gatherer:     c.sys.registry,
			})
			if err != nil {
				return fmt.Errorf("build server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}),
	}
}

func (c *cli) simulateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one scenario and print the comparison",
		Example: `  mtfsim simulate --ltp 412.8 --target_price 495.36 --holding_days 30
  mtfsim simulate --exposure 1 --json`,
		Args: cobra.NoArgs,
		RunE: c.withSystem(func(cmd *cobra.Command, args []string) error {
			res, err := c.run(cmd)
			if err != nil {
				return err
			}
			if !asJSON {
				return report.WriteText(c.out, res)
			}
			if !res.Finite() {
				return errNonFinite
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}),
	}
	addParameterFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func (c *cli) sweepCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Export P&L and ROI across the configured price range as CSV",
		Args:  cobra.NoArgs,
		RunE: c.withSystem(func(cmd *cobra.Command, args []string) error {
			res, err := c.run(cmd)
			if err != nil {
				return err
			}
			if outPath == "" {
				return report.WriteSweepCSV(c.out, res.Sweep)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := report.WriteSweepCSV(f, res.Sweep); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info(cmd.Context(), "Sweep CSV written", "path", outPath, "points", len(res.Sweep))
			return nil
		}),
	}
	addParameterFlags(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write CSV to this file instead of stdout")
	return cmd
}

// run validates the scenario given on the command line, on top of the
// configured defaults, and simulates it.
func (c *cli) run(cmd *cobra.Command) (*types.SimulationResult, error) {
	op := logger.StartOperation(cmd.Context(), "cli."+cmd.Name())

	params, err := c.sys.collector.FromForm(changedParameters(cmd), c.sys.cfg.DefaultParameters())
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	res, err := c.sys.sim.Simulate(op.Context(), params)
	if err != nil {
		op.EndWithError(err, "symbol", params.Symbol)
		return nil, err
	}
	op.End("symbol", params.Symbol, "recommendation", string(res.Recommendation.Mode))
	return res, nil
}

var parameterFlags = []struct {
	name  string
	usage string
}{
	{collector.FieldSymbol, "stock symbol label"},
	{collector.FieldLTP, "last traded price"},
	{collector.FieldInvestment, "own capital committed"},
	{collector.FieldExposure, "leverage multiplier"},
	{collector.FieldTargetPrice, "expected exit price"},
	{collector.FieldStopPrice, "stop-loss price"},
	{collector.FieldHoldingDays, "days the position is held"},
	{collector.FieldInterestRatePct, "annual MTF interest rate in percent"},
	{collector.FieldBrokeragePct, "brokerage in percent of turnover"},
	{collector.FieldTxnChargesPct, "transaction charges in percent of turnover"},
	{collector.FieldOtherChargesPct, "other charges in percent of turnover"},
}

// addParameterFlags registers one string flag per trade parameter. Values
// are parsed by the collector so the CLI and the web form share rules.
func addParameterFlags(cmd *cobra.Command) {
	for _, f := range parameterFlags {
		cmd.Flags().String(f.name, "", f.usage+" (default from config)")
	}
}

func changedParameters(cmd *cobra.Command) url.Values {
	values := url.Values{}
	for _, f := range parameterFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.name)
		values.Set(f.name, v)
	}
	return values
}
