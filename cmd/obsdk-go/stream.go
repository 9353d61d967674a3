package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/orbbec/obsdk-go/pkg/obsdk"
)

func streamCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream one sensor through its frame callback",
		Args:  cobra.NoArgs,
		RunE:  withApp(v, runStream),
	}
	f := cmd.Flags()
	f.String("sensor", "depth", "sensor: depth, color, ir, accel or gyro")
	f.Int("width", 0, "profile width (0 = any)")
	f.Int("height", 0, "profile height (0 = any)")
	f.String("format", "any", "profile format, e.g. y16 or rgb")
	f.Int("fps", 0, "profile frame rate (0 = any)")
	f.Int("count", 30, "frames to receive (0 = until interrupted)")
	return cmd
}

func runStream(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	sensorName, _ := f.GetString("sensor")
	formatName, _ := f.GetString("format")
	width, _ := f.GetInt("width")
	height, _ := f.GetInt("height")
	fps, _ := f.GetInt("fps")
	count, _ := f.GetInt("count")

	st, err := obsdk.ParseSensorType(sensorName)
	if err != nil {
		return err
	}
	format, err := obsdk.ParseFormat(formatName)
	if err != nil {
		return err
	}

	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()
	sensor, err := dev.Sensor(st)
	if err != nil {
		return err
	}
	defer sensor.Close()
	profiles, err := sensor.StreamProfileList()
	if err != nil {
		return err
	}
	defer profiles.Close()
	profile, err := profiles.VideoProfile(width, height, format, fps)
	if err != nil {
		return err
	}
	defer profile.Close()
	if mode, err := profile.VideoMode(); err == nil {
		a.out.Printf("streaming %s %s\n", st, mode)
	}

	var (
		received atomic.Int64
		once     sync.Once
		done     = make(chan struct{})
	)
	err = sensor.Start(profile, func(fr *obsdk.Frame) {
		defer fr.Close()
		n := received.Add(1)
		if count > 0 && n > int64(count) {
			return
		}
		a.out.Printf("%s\n", describeFrame(fr))
		if count > 0 && n == int64(count) {
			once.Do(func() { close(done) })
		}
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	if err := sensor.Stop(); err != nil {
		return err
	}
	a.log.Info(ctx, "stream finished", "sensor", st.String(), "frames", received.Load())
	return nil
}

func describeFrame(fr *obsdk.Frame) string {
	t, _ := fr.Type()
	idx, _ := fr.Index()
	ts, _ := fr.Timestamp()
	size, _ := fr.DataSize()
	w, _ := fr.Width()
	h, _ := fr.Height()
	if w > 0 {
		return fmt.Sprintf("%-6s #%-6d %4dx%-4d %8d bytes  ts=%s", t, idx, w, h, size, ts)
	}
	return fmt.Sprintf("%-6s #%-6d %8d bytes  ts=%s", t, idx, size, ts)
}

func pipelineCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Stream synchronized framesets through a pipeline",
		Args:  cobra.NoArgs,
		RunE:  withApp(v, runPipeline),
	}
	f := cmd.Flags()
	f.Int("count", 10, "framesets to receive per device (0 = until interrupted)")
	f.Duration("timeout", time.Second, "wait for each frameset at most this long")
	f.Bool("all", false, "stream every connected device concurrently")
	f.Bool("frame-sync", false, "enable frame synchronization")
	return cmd
}

func runPipeline(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	count, _ := f.GetInt("count")
	timeout, _ := f.GetDuration("timeout")
	all, _ := f.GetBool("all")
	frameSync, _ := f.GetBool("frame-sync")

	var devices []*obsdk.Device
	defer func() {
		for _, d := range devices {
			d.Close()
		}
	}()
	if all {
		var err error
		if devices, err = a.openAllDevices(); err != nil {
			return err
		}
	} else {
		dev, err := a.openDevice()
		if err != nil {
			return err
		}
		devices = append(devices, dev)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, dev := range devices {
		pl, err := a.lib.NewPipelineWithDevice(dev)
		if err != nil {
			return err
		}
		label, err := serialOf(dev)
		if err != nil {
			pl.Close()
			return err
		}
		g.Go(func() error {
			defer pl.Close()
			if frameSync {
				if err := pl.EnableFrameSync(); err != nil {
					return err
				}
			}
			return pumpFramesets(ctx, a, pl, label, count, timeout)
		})
	}
	return g.Wait()
}

// pumpFramesets waits for count framesets and prints one line per set.
func pumpFramesets(ctx context.Context, a *app, pl *obsdk.Pipeline, label string, count int, timeout time.Duration) error {
	if err := pl.Start(); err != nil {
		return err
	}
	for i := 0; count == 0 || i < count; {
		fs, err := pl.WaitForFrameset(ctx, timeout)
		switch {
		case errors.Is(err, obsdk.ErrTimeout):
			a.log.Warn(ctx, "no frameset", "device", label, "timeout", timeout)
			continue
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		}
		a.out.Printf("[%s] %s\n", label, describeFrameset(fs))
		fs.Close()
		i++
	}
	return pl.Stop()
}

func describeFrameset(fs *obsdk.Frameset) string {
	n, _ := fs.Count()
	s := fmt.Sprintf("frameset of %d:", n)
	for _, t := range []obsdk.FrameType{obsdk.FrameDepth, obsdk.FrameColor, obsdk.FrameIR, obsdk.FrameAccel, obsdk.FrameGyro} {
		fr, err := fs.Frame(t)
		if err != nil || fr == nil {
			continue
		}
		idx, _ := fr.Index()
		if w, _ := fr.Width(); w > 0 {
			h, _ := fr.Height()
			s += fmt.Sprintf(" %s#%d(%dx%d)", t, idx, w, h)
		} else {
			s += fmt.Sprintf(" %s#%d", t, idx)
		}
		fr.Close()
	}
	return s
}

func (a *app) openAllDevices() ([]*obsdk.Device, error) {
	c, err := a.lib.NewContext()
	if err != nil {
		return nil, err
	}
	defer c.Close()
	list, err := c.QueryDeviceList()
	if err != nil {
		return nil, err
	}
	defer list.Close()
	n, err := list.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no device connected", obsdk.ErrDeviceNotFound)
	}
	devices := make([]*obsdk.Device, 0, n)
	for i := range n {
		dev, err := list.Device(i)
		if err != nil {
			for _, d := range devices {
				d.Close()
			}
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func serialOf(dev *obsdk.Device) (string, error) {
	info, err := dev.Info()
	if err != nil {
		return "", err
	}
	defer info.Close()
	return info.SerialNumber()
}
