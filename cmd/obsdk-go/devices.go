package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/orbbec/obsdk-go/pkg/obsdk"
)

func versionCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the binding and SDK versions",
		Args:  cobra.NoArgs,
		RunE: withApp(v, func(_ context.Context, a *app, _ *cobra.Command, _ []string) error {
			a.out.Printf("obsdk-go %s\n", obsdk.WrapperVersion())
			a.out.Printf("sdk      %s (%s)\n", a.lib.Version(), obsdk.UpstreamSDK)
			return nil
		}),
	}
}

func devicesCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List connected devices",
		Args:  cobra.NoArgs,
		RunE:  withApp(v, runDevices),
	}
	cmd.Flags().StringP("output", "o", "table", "output format: table or yaml")
	cmd.Flags().Bool("details", false, "open each device and include firmware and hardware versions")
	return cmd
}

type deviceReport struct {
	obsdk.DeviceEntry `yaml:",inline"`
	Firmware          string `yaml:"firmware,omitempty"`
	Hardware          string `yaml:"hardware,omitempty"`
	Preset            string `yaml:"preset,omitempty"`
	DepthMode         string `yaml:"depth_work_mode,omitempty"`
}

func runDevices(_ context.Context, a *app, cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("output")
	details, _ := cmd.Flags().GetBool("details")

	c, err := a.lib.NewContext()
	if err != nil {
		return err
	}
	defer c.Close()
	list, err := c.QueryDeviceList()
	if err != nil {
		return err
	}
	defer list.Close()

	entries, err := list.Entries()
	if err != nil {
		return err
	}
	reports := make([]deviceReport, 0, len(entries))
	for _, e := range entries {
		r := deviceReport{DeviceEntry: e}
		if details {
			if err := describeDevice(list, &r); err != nil {
				return fmt.Errorf("device %s: %w", e.SerialNumber, err)
			}
		}
		reports = append(reports, r)
	}

	switch format {
	case "yaml":
		b, err := yaml.Marshal(reports)
		if err != nil {
			return err
		}
		a.out.Printf("%s", b)
	case "table":
		if len(reports) == 0 {
			a.out.Printf("no devices\n")
			return nil
		}
		tw := tabwriter.NewWriter(a.out.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tNAME\tSERIAL\tCONNECTION\tPID:VID\tFIRMWARE\tPRESET\tDEPTH MODE")
		for _, r := range reports {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%04x:%04x\t%s\t%s\t%s\n",
				r.Index, r.Name, r.SerialNumber, r.ConnectionType, r.PID, r.VID, dash(r.Firmware), dash(r.Preset), dash(r.DepthMode))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

func describeDevice(list *obsdk.DeviceList, r *deviceReport) error {
	dev, err := list.Device(r.Index)
	if err != nil {
		return err
	}
	defer dev.Close()
	info, err := dev.Info()
	if err != nil {
		return err
	}
	defer info.Close()
	snap, err := info.Snapshot()
	if err != nil {
		return err
	}
	r.Firmware, r.Hardware = snap.FirmwareVersion, snap.HardwareVersion
	if r.Preset, err = dev.CurrentPresetName(); err != nil {
		return err
	}
	r.DepthMode, err = dev.CurrentDepthWorkModeName()
	if errors.Is(err, obsdk.ErrUnsupported) {
		return nil
	}
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
