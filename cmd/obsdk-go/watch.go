package main

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/orbbec/obsdk-go/pkg/obsdk"
)

func watchCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow hot-plug events and stream every connected device",
		Args:  cobra.NoArgs,
		RunE:  withApp(v, runWatch),
	}
	cmd.Flags().Duration("duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().Duration("poll", 20*time.Millisecond, "frameset wait per device and polling iteration")
	cmd.Flags().Duration("churn", 0, "with --simulate, unplug and replug a device at this interval")
	return cmd
}

// watcher owns one pipeline per connected device. mu is held across every
// whole mutation of pipes and across each polling iteration.
type watcher struct {
	a     *app
	mu    sync.Mutex
	pipes map[string]*obsdk.Pipeline
}

func runWatch(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	poll, _ := cmd.Flags().GetDuration("poll")
	churn, _ := cmd.Flags().GetDuration("churn")
	if churn > 0 && a.sim == nil {
		return errors.New("--churn needs --simulate")
	}
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	w := &watcher{a: a, pipes: make(map[string]*obsdk.Pipeline)}
	defer w.closeAll()

	c, err := a.lib.NewContext()
	if err != nil {
		return err
	}
	defer c.Close()
	list, err := c.QueryDeviceList()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.addLocked(ctx, list)
	w.mu.Unlock()
	list.Close()

	err = c.SetDeviceChangedCallback(func(removed, added *obsdk.DeviceList) {
		defer removed.Close()
		defer added.Close()
		w.mu.Lock()
		defer w.mu.Unlock()
		w.removeLocked(ctx, removed)
		w.addLocked(ctx, added)
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.poll(ctx, poll) })
	if churn > 0 {
		g.Go(func() error { return w.churn(ctx, churn) })
	}
	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (w *watcher) addLocked(ctx context.Context, list *obsdk.DeviceList) {
	n, err := list.Count()
	if err != nil {
		w.a.log.Warn(ctx, "read device list", "error", err)
		return
	}
	for i := range n {
		serial, err := list.SerialNumber(i)
		if err != nil {
			w.a.log.Warn(ctx, "read device serial", "index", i, "error", err)
			continue
		}
		if _, ok := w.pipes[serial]; ok {
			continue
		}
		pl, err := w.start(list, i)
		if err != nil {
			w.a.log.Warn(ctx, "start device", "serial", serial, "error", err)
			continue
		}
		w.pipes[serial] = pl
		w.a.out.Printf("+ %s\n", serial)
	}
}

func (w *watcher) start(list *obsdk.DeviceList, i int) (*obsdk.Pipeline, error) {
	dev, err := list.Device(i)
	if err != nil {
		return nil, err
	}
	defer dev.Close()
	pl, err := w.a.lib.NewPipelineWithDevice(dev)
	if err != nil {
		return nil, err
	}
	if err := pl.Start(); err != nil {
		return nil, errors.Join(err, pl.Close())
	}
	return pl, nil
}

func (w *watcher) removeLocked(ctx context.Context, list *obsdk.DeviceList) {
	n, err := list.Count()
	if err != nil {
		w.a.log.Warn(ctx, "read device list", "error", err)
		return
	}
	for i := range n {
		serial, err := list.SerialNumber(i)
		if err != nil {
			continue
		}
		pl, ok := w.pipes[serial]
		if !ok {
			continue
		}
		delete(w.pipes, serial)
		if err := pl.Close(); err != nil {
			w.a.log.Warn(ctx, "close pipeline", "serial", serial, "error", err)
		}
		w.a.out.Printf("- %s\n", serial)
	}
}

func (w *watcher) poll(ctx context.Context, wait time.Duration) error {
	for ctx.Err() == nil {
		w.mu.Lock()
		for _, serial := range slices.Sorted(maps.Keys(w.pipes)) {
			fs, err := w.pipes[serial].WaitForFrameset(ctx, wait)
			switch {
			case err == nil:
				w.a.out.Printf("[%s] %s\n", serial, describeFrameset(fs))
				fs.Close()
			case errors.Is(err, obsdk.ErrTimeout), errors.Is(err, obsdk.ErrDeviceNotFound):
			case ctx.Err() != nil:
			default:
				w.a.log.Warn(ctx, "wait for frameset", "serial", serial, "error", err)
			}
		}
		empty := len(w.pipes) == 0
		w.mu.Unlock()
		if empty {
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
		}
	}
	return ctx.Err()
}

// churn unplugs and replugs simulated devices in turn.
func (w *watcher) churn(ctx context.Context, every time.Duration) error {
	devices := w.a.scenario.Devices
	if len(devices) == 0 {
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for i := 0; ; i++ {
		d := devices[i%len(devices)]
		for _, step := range []func() error{
			func() error { return w.a.sim.Detach(d.Serial) },
			func() error { return w.a.sim.Attach(d) },
		} {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
			if err := step(); err != nil {
				w.a.log.Warn(ctx, "simulated hot-plug", "serial", d.Serial, "error", err)
			}
		}
	}
}

func (w *watcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for serial, pl := range w.pipes {
		if err := pl.Close(); err != nil {
			w.a.log.Warn(context.Background(), "close pipeline", "serial", serial, "error", err)
		}
		delete(w.pipes, serial)
	}
}
