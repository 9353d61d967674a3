package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orbbec/obsdk-go/pkg/obsdk"
)

func recordCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record FILE",
		Short: "Record the default pipeline streams to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(v, runRecord),
	}
	cmd.Flags().Duration("duration", 5*time.Second, "recording length")
	cmd.Flags().Bool("async", true, "write frames on the SDK's background thread")
	return cmd
}

func runRecord(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	async, _ := cmd.Flags().GetBool("async")
	path := args[0]

	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()
	rec, err := a.lib.NewRecorderWithDevice(dev)
	if err != nil {
		return err
	}
	defer rec.Close()
	if err := rec.Start(path, async); err != nil {
		return err
	}

	pl, err := a.lib.NewPipelineWithDevice(dev)
	if err != nil {
		return err
	}
	defer pl.Close()
	if err := pl.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	var sets int
	for {
		fs, err := pl.WaitForFrameset(ctx, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, obsdk.ErrTimeout) {
				continue
			}
			return err
		}
		sets++
		fs.Close()
	}

	if err := pl.Stop(); err != nil {
		return err
	}
	if err := rec.Stop(); err != nil {
		return err
	}
	a.out.Printf("recorded %d framesets to %s\n", sets, path)
	return nil
}

func playCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Replay a recording and summarise its frames",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(v, runPlay),
	}
	cmd.Flags().StringSlice("media", []string{"all"}, "media to replay: all, depth, color, ir, accel, gyro")
	cmd.Flags().Bool("verbose", false, "print every frame")
	return cmd
}

func runPlay(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	names, _ := cmd.Flags().GetStringSlice("media")
	verbose, _ := cmd.Flags().GetBool("verbose")
	media, err := parseMedia(names)
	if err != nil {
		return err
	}

	pb, err := a.lib.NewPlayback(args[0])
	if err != nil {
		return err
	}
	defer pb.Close()

	info, err := pb.DeviceInfo()
	if err != nil {
		return err
	}
	snap, err := info.Snapshot()
	info.Close()
	if err != nil {
		return err
	}
	a.out.Printf("recorded with %s (%s, firmware %s)\n", snap.Name, snap.SerialNumber, snap.FirmwareVersion)
	if param, err := pb.CameraParam(); err == nil {
		in := param.DepthIntrinsic
		a.out.Printf("depth intrinsics %dx%d fx=%.1f fy=%.1f cx=%.1f cy=%.1f\n", in.Width, in.Height, in.Fx, in.Fy, in.Cx, in.Cy)
	}

	var (
		mu     sync.Mutex
		counts = make(map[obsdk.FrameType]int)
		once   sync.Once
		ended  = make(chan struct{})
	)
	err = pb.SetStateCallback(func(s obsdk.MediaState) {
		if s == obsdk.MediaEnd {
			once.Do(func() { close(ended) })
		}
	})
	if err != nil {
		return err
	}
	err = pb.Start(media, func(fr *obsdk.Frame) {
		defer fr.Close()
		t, err := fr.Type()
		if err != nil {
			return
		}
		mu.Lock()
		counts[t]++
		mu.Unlock()
		if verbose {
			a.out.Printf("%s\n", describeFrame(fr))
		}
	})
	if err != nil {
		return err
	}

	select {
	case <-ended:
	case <-ctx.Done():
		if err := pb.Stop(); err != nil {
			return err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	types := make([]obsdk.FrameType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		a.out.Printf("%-6s %d frames\n", t, counts[t])
	}
	return nil
}

func parseMedia(names []string) (obsdk.MediaType, error) {
	var m obsdk.MediaType
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "all":
			m |= obsdk.MediaAll
		case "depth":
			m |= obsdk.MediaDepth
		case "color":
			m |= obsdk.MediaColor
		case "ir":
			m |= obsdk.MediaIR
		case "accel":
			m |= obsdk.MediaAccel
		case "gyro":
			m |= obsdk.MediaGyro
		default:
			return 0, fmt.Errorf("unknown media %q", n)
		}
	}
	return m, nil
}
