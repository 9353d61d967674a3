package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orbbec/obsdk-go/internal/fakesdk"
	"github.com/orbbec/obsdk-go/pkg/obsdk"
	"github.com/orbbec/obsdk-go/pkg/obsdk/logging"
	"github.com/orbbec/obsdk-go/pkg/obsdk/metrics"
)

const flushTimeout = 2 * time.Second

// app is the per-invocation environment: logger, metrics endpoint, fault
// sink and the opened library.
type app struct {
	v        *viper.Viper
	out      *printer
	log      logging.Logger
	logClose io.Closer
	session  string

	lib      *obsdk.Library
	sim      *fakesdk.SDK
	scenario *fakesdk.Scenario
	srv      *http.Server
	sentry   bool
}

type commandFunc func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error

// withApp opens the environment around fn and tears it down afterwards.
func withApp(v *viper.Viper, fn commandFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd, v)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, a.Close()) }()
		return fn(cmd.Context(), a, cmd, args)
	}
}

func openApp(cmd *cobra.Command, v *viper.Viper) (*app, error) {
	a := &app{
		v:       v,
		out:     &printer{w: cmd.OutOrStdout()},
		session: uuid.NewString(),
	}
	if err := a.openLogger(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	if err := a.open(cmd.Context()); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func (a *app) openLogger(console io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	output, err := parseOutput(a.v.GetString("log-output"))
	if err != nil {
		return err
	}
	log, closer, err := logging.NewWithOptions(logging.Options{
		Level:      level,
		Output:     output,
		FilePath:   a.v.GetString("log-file"),
		MaxSizeMB:  a.v.GetInt("log-max-size"),
		MaxBackups: a.v.GetInt("log-max-backups"),
		JSON:       a.v.GetBool("log-json"),
		Console:    console,
	})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	a.log = log.With("session", a.session)
	a.logClose = closer
	return nil
}

func (a *app) open(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewBindingMetrics(reg)
	if err != nil {
		return err
	}

	cfg := obsdk.Config{Logger: a.log, Metrics: m, OnFault: a.onFault}
	if s := a.v.GetString("sdk-log-level"); s != "" {
		sev, err := parseSeverity(s)
		if err != nil {
			return err
		}
		cfg.SDKLog = &obsdk.SDKLogConfig{Severity: sev, Console: true}
	}

	if dsn := a.v.GetString("sentry-dsn"); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: a.v.GetString("sentry-environment"),
			Release:     "obsdk-go@" + obsdk.WrapperVersion(),
		})
		if err != nil {
			return fmt.Errorf("sentry initialization failed: %w", err)
		}
		a.sentry = true
	}

	if addr := a.v.GetString("metrics-addr"); addr != "" {
		if err := a.serveMetrics(ctx, addr, reg); err != nil {
			return err
		}
	}

	if sim := a.v.GetString("simulate"); sim != "" {
		a.scenario = fakesdk.DefaultScenario()
		if sim != "default" {
			if a.scenario, err = fakesdk.LoadScenario(sim); err != nil {
				return err
			}
		}
		a.sim = fakesdk.New(a.scenario)
		a.lib, err = obsdk.OpenWithNative(a.sim, cfg)
		return err
	}

	a.lib, err = obsdk.Open(cfg)
	if errors.Is(err, obsdk.ErrNotBuilt) {
		return fmt.Errorf("%w; rebuild with -tags orbbecsdk or pass --simulate default", err)
	}
	return err
}

func (a *app) serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	a.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()
	a.log.Info(ctx, "serving metrics", "addr", ln.Addr().String())
	return nil
}

// onFault logs binding faults and forwards them to Sentry when configured.
func (a *app) onFault(f obsdk.Fault) {
	a.log.Error(context.Background(), "obsdk fault", "op", f.Op, "kind", f.Kind, "error", f.Err)
	if !a.sentry {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", f.Op)
		scope.SetTag("kind", f.Kind)
		scope.SetTag("session", a.session)
		sentry.CaptureException(f)
	})
}

func (a *app) Close() error {
	var errs []error
	if a.lib != nil {
		errs = append(errs, a.lib.Close())
	}
	if a.sim != nil {
		a.sim.Drain()
		if n := a.sim.Live(); n > 0 {
			a.log.Warn(context.Background(), "simulator objects left open", "live", a.sim.LiveSummary())
		}
	}
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		errs = append(errs, a.srv.Shutdown(ctx))
		cancel()
	}
	if a.sentry {
		sentry.Flush(flushTimeout)
	}
	if a.logClose != nil {
		errs = append(errs, a.logClose.Close())
	}
	return errors.Join(errs...)
}

// openDevice opens the device named by --serial, or the first one.
func (a *app) openDevice() (*obsdk.Device, error) {
	ctx, err := a.lib.NewContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Close()
	list, err := ctx.QueryDeviceList()
	if err != nil {
		return nil, err
	}
	defer list.Close()

	if serial := a.v.GetString("serial"); serial != "" {
		return list.DeviceBySerialNumber(serial)
	}
	n, err := list.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no device connected", obsdk.ErrDeviceNotFound)
	}
	return list.Device(0)
}

func parseOutput(s string) (logging.Output, error) {
	switch strings.ToLower(s) {
	case "none":
		return logging.OutputNone, nil
	case "", "console":
		return logging.OutputConsole, nil
	case "file":
		return logging.OutputFile, nil
	case "all":
		return logging.OutputAll, nil
	}
	return 0, fmt.Errorf("log-output: unknown output %q", s)
}

func parseSeverity(s string) (obsdk.LogSeverity, error) {
	switch strings.ToLower(s) {
	case "debug":
		return obsdk.LogDebug, nil
	case "info":
		return obsdk.LogInfo, nil
	case "warn":
		return obsdk.LogWarn, nil
	case "error":
		return obsdk.LogError, nil
	case "off":
		return obsdk.LogOff, nil
	}
	return 0, fmt.Errorf("sdk-log-level: unknown severity %q", s)
}

// printer serialises command output written from SDK callback threads.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}
