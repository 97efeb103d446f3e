// churn.go: lookup workload against a locator manager
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/reftable"
	"github.com/agilira/reftable/locator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	churnPort    = "1099"
	churnService = "Echo"
)

type churnOptions struct {
	Environments  int
	Lookups       int
	Workers       int
	PinLimit      int
	ReleaseEvery  int
	AppLookup     string
	PressureLimit uint64
	ConfigPath    string
	Metrics       bool
	Seed          uint64
}

func (o churnOptions) validate() error {
	switch {
	case o.Environments <= 0:
		return fmt.Errorf("environments must be positive, got %d", o.Environments)
	case o.Lookups < 0:
		return fmt.Errorf("lookups must not be negative, got %d", o.Lookups)
	case o.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", o.Workers)
	case o.PinLimit < 0:
		return fmt.Errorf("pin-limit must not be negative, got %d", o.PinLimit)
	case o.ReleaseEvery < 0:
		return fmt.Errorf("release-every must not be negative, got %d", o.ReleaseEvery)
	}
	return nil
}

func newChurnCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "churn",
		Short: "Run lookups over many environments and report reclamation",
		Long: `Builds a locator manager over in-memory directories, one per
environment, and resolves a service from random environments on several
workers. Pins are released periodically so idle environments are reclaimed
while the workload runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := churnOptions{
				Environments:  v.GetInt("environments"),
				Lookups:       v.GetInt("lookups"),
				Workers:       v.GetInt("workers"),
				PinLimit:      v.GetInt("pin-limit"),
				ReleaseEvery:  v.GetInt("release-every"),
				AppLookup:     v.GetString("app-lookup"),
				PressureLimit: v.GetUint64("pressure-limit"),
				ConfigPath:    v.GetString("config"),
				Metrics:       v.GetBool("metrics"),
				Seed:          v.GetUint64("seed"),
			}
			return runChurn(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.Int("environments", 64, wrapString("Number of distinct host environments"))
	flags.Int("lookups", 100000, wrapString("Total number of lookups across all workers"))
	flags.Int("workers", runtime.GOMAXPROCS(0), wrapString("Number of concurrent workers"))
	flags.Int("pin-limit", 16, wrapString("Soft pin limit of the manager tables (0 uses the default)"))
	flags.Int("release-every", 5000, wrapString("Release all pins and run a GC every N lookups (0 disables)"))
	flags.String("app-lookup", "churn", wrapString("Application lookup prefix"))
	flags.Uint64("pressure-limit", 0, wrapString("Heap budget in bytes for the pressure monitor (0 uses the runtime memory limit, if any)"))
	flags.String("config", "", wrapString("Configuration file hot-reloaded into the manager (locator.app_lookup, locator.soft_pin_limit, locator.release_fraction)"))
	flags.Bool("metrics", false, wrapString("Print table metrics in Prometheus format after the run"))
	flags.Uint64("seed", 1, wrapString("Random seed of the workers"))
	return cmd
}

type churnResult struct {
	found    atomic.Int64
	notFound atomic.Int64
	closed   atomic.Int64
	failed   atomic.Int64
	releases atomic.Int64
}

func runChurn(ctx context.Context, out io.Writer, opts churnOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := dlogLogger{}
	collector := newVMCollector("locators")
	monitor := reftable.NewPressureMonitor(reftable.PressureConfig{
		Limit:  opts.PressureLimit,
		Logger: logger,
	})

	m, err := locator.NewManager(locator.Config{
		AppLookup:        opts.AppLookup,
		SoftPinLimit:     opts.PinLimit,
		PressureMonitor:  monitor,
		Logger:           logger,
		MetricsCollector: collector,
	})
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if monitor.Enabled() {
		if err := monitor.Start(); err != nil {
			return err
		}
		defer func() { _ = monitor.Stop() }()
	}

	if opts.ConfigPath != "" {
		hc, err := locator.NewHotConfig(m, locator.HotConfigOptions{
			ConfigPath: opts.ConfigPath,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		if err := hc.Start(); err != nil {
			return err
		}
		defer func() { _ = hc.Stop() }()
	}

	hosts := bindHosts(opts)
	defer func() {
		for _, h := range hosts {
			locator.DropMemoryDirectory(h + ":" + churnPort)
		}
	}()

	var res churnResult
	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		share := opts.Lookups / opts.Workers
		if w < opts.Lookups%opts.Workers {
			share++
		}
		wg.Add(1)
		go func(w, share int) {
			defer wg.Done()
			r := rand.New(rand.NewPCG(opts.Seed, uint64(w)))
			for i := 1; i <= share; i++ {
				lookupOnce(ctx, m, hosts[r.IntN(len(hosts))], &res)
				if w == 0 && opts.ReleaseEvery > 0 && i%opts.ReleaseEvery == 0 {
					res.releases.Add(int64(m.ReleasePins()))
					runtime.GC()
				}
			}
		}(w, share)
	}
	wg.Wait()
	elapsed := time.Since(start)

	report(out, opts, &res, m.Stats(), monitor, elapsed)
	if opts.Metrics {
		collector.WritePrometheus(out)
	}
	return ctx.Err()
}

// bindHosts binds the churn service in the memory directory of every host.
func bindHosts(opts churnOptions) []string {
	name := churnService + "/remote"
	if prefix := strings.TrimSpace(opts.AppLookup); prefix != "" {
		name = strings.TrimSuffix(prefix, "/") + "/" + name
	}
	hosts := make([]string, opts.Environments)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("churn-%d", i)
		_ = locator.MemoryDirectory(hosts[i]+":"+churnPort).Bind(name, hosts[i])
	}
	return hosts
}

func lookupOnce(ctx context.Context, m *locator.Manager, host string, res *churnResult) {
	l, err := m.ForHost(ctx, host, churnPort)
	if err != nil {
		res.failed.Add(1)
		return
	}
	_, err = locator.RemoteAs[string](ctx, l, churnService)
	switch {
	case err == nil:
		res.found.Add(1)
	case locator.IsNotFound(err):
		res.notFound.Add(1)
	case locator.IsClosed(err):
		// manager closed under the worker
		res.closed.Add(1)
	default:
		res.failed.Add(1)
	}
}

func report(out io.Writer, opts churnOptions, res *churnResult, stats locator.ManagerStats, monitor *reftable.PressureMonitor, elapsed time.Duration) {
	fmt.Fprintf(out, "lookups=%d found=%d not_found=%d closed=%d failed=%d elapsed=%s\n",
		opts.Lookups, res.found.Load(), res.notFound.Load(), res.closed.Load(), res.failed.Load(),
		elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "pins released by workload=%d\n", res.releases.Load())
	printStats(out, "environments", stats.Environments)
	printStats(out, "locators", stats.Locators)
	if monitor.Enabled() {
		reliefs, released := monitor.Reliefs()
		fmt.Fprintf(out, "pressure: limit=%d reliefs=%d released=%d\n", monitor.Limit(), reliefs, released)
	}
}

func printStats(out io.Writer, name string, s reftable.Stats) {
	fmt.Fprintf(out, "%s: size=%d capacity=%d puts=%d removes=%d reclaimed=%d resizes=%d reverts=%d pinned=%d pin_releases=%d\n",
		name, s.Size, s.Capacity, s.Puts, s.Removes, s.Reclaimed, s.Resizes, s.Reverts, s.Pinned, s.PinReleases)
}
