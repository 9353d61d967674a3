package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/orbbec/obsdk-go/pkg/obsdk"
)

func propsCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "props",
		Short: "Inspect and change device properties",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List supported properties with their current values",
			Args:  cobra.NoArgs,
			RunE:  withApp(v, runPropsList),
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Read one property",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(v, runPropsGet),
		},
		&cobra.Command{
			Use:   "set ID VALUE",
			Short: "Write one property",
			Args:  cobra.ExactArgs(2),
			RunE:  withApp(v, runPropsSet),
		},
		&cobra.Command{
			Use:   "struct",
			Short: "Print the structured properties the device supports",
			Args:  cobra.NoArgs,
			RunE:  withApp(v, runPropsStruct),
		},
	)
	return cmd
}

func runPropsList(_ context.Context, a *app, cmd *cobra.Command, _ []string) error {
	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()
	items, err := dev.SupportedProperties()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tACCESS\tVALUE\tRANGE")
	for _, it := range items {
		value, rng := "-", "-"
		if it.Permission&obsdk.PermissionRead != 0 {
			value, rng = readProperty(dev, it)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.Name, typeName(it.Type), permName(it.Permission), value, rng)
	}
	return tw.Flush()
}

// readProperty formats the current value and range of a scalar property.
func readProperty(dev *obsdk.Device, it obsdk.PropertyItem) (value, rng string) {
	switch it.Type {
	case obsdk.PropertyInt:
		if r, err := dev.IntPropertyRange(it.ID); err == nil {
			return strconv.Itoa(int(r.Cur)), fmt.Sprintf("%d..%d step %d (default %d)", r.Min, r.Max, r.Step, r.Def)
		}
	case obsdk.PropertyFloat:
		if r, err := dev.FloatPropertyRange(it.ID); err == nil {
			return strconv.FormatFloat(float64(r.Cur), 'g', -1, 32), fmt.Sprintf("%g..%g step %g (default %g)", r.Min, r.Max, r.Step, r.Def)
		}
	case obsdk.PropertyBool:
		if r, err := dev.BoolPropertyRange(it.ID); err == nil {
			return strconv.FormatBool(r.Cur), fmt.Sprintf("default %t", r.Def)
		}
	case obsdk.PropertyStruct:
		if data, err := dev.StructuredData(it.ID); err == nil {
			return fmt.Sprintf("%d bytes", len(data)), "-"
		}
	}
	return "?", "-"
}

func runPropsGet(_ context.Context, a *app, _ *cobra.Command, args []string) error {
	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()
	it, err := lookupProperty(dev, args[0])
	if err != nil {
		return err
	}

	var s string
	switch it.Type {
	case obsdk.PropertyInt:
		v, err := dev.IntProperty(it.ID)
		if err != nil {
			return err
		}
		s = strconv.Itoa(int(v))
	case obsdk.PropertyFloat:
		v, err := dev.FloatProperty(it.ID)
		if err != nil {
			return err
		}
		s = strconv.FormatFloat(float64(v), 'g', -1, 32)
	case obsdk.PropertyBool:
		v, err := dev.BoolProperty(it.ID)
		if err != nil {
			return err
		}
		s = strconv.FormatBool(v)
	default:
		data, err := dev.StructuredData(it.ID)
		if err != nil {
			return err
		}
		s = fmt.Sprintf("% x", data)
	}
	a.out.Printf("%s = %s\n", it.Name, s)
	return nil
}

func runPropsSet(_ context.Context, a *app, _ *cobra.Command, args []string) error {
	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()
	it, err := lookupProperty(dev, args[0])
	if err != nil {
		return err
	}

	raw := args[1]
	switch it.Type {
	case obsdk.PropertyInt:
		v, perr := strconv.ParseInt(raw, 10, 32)
		if perr != nil {
			return fmt.Errorf("%s: %w", it.Name, perr)
		}
		err = dev.SetIntProperty(it.ID, int32(v))
	case obsdk.PropertyFloat:
		v, perr := strconv.ParseFloat(raw, 32)
		if perr != nil {
			return fmt.Errorf("%s: %w", it.Name, perr)
		}
		err = dev.SetFloatProperty(it.ID, float32(v))
	case obsdk.PropertyBool:
		v, perr := strconv.ParseBool(raw)
		if perr != nil {
			return fmt.Errorf("%s: %w", it.Name, perr)
		}
		err = dev.SetBoolProperty(it.ID, v)
	default:
		return fmt.Errorf("%s: structured properties are not settable from the command line", it.Name)
	}
	if err != nil {
		return err
	}
	a.out.Printf("%s set to %s\n", it.Name, raw)
	return nil
}

// lookupProperty resolves a numeric ID or a property name.
func lookupProperty(dev *obsdk.Device, key string) (obsdk.PropertyItem, error) {
	items, err := dev.SupportedProperties()
	if err != nil {
		return obsdk.PropertyItem{}, err
	}
	id, numErr := strconv.Atoi(key)
	for _, it := range items {
		if (numErr == nil && int(it.ID) == id) || it.Name == key {
			return it, nil
		}
	}
	return obsdk.PropertyItem{}, fmt.Errorf("%w: property %q", obsdk.ErrUnsupported, key)
}

type structReport struct {
	Temperature     *obsdk.DeviceTemperature     `yaml:"temperature,omitempty"`
	Baseline        *obsdk.BaselineCalibration   `yaml:"baseline,omitempty"`
	MultiDeviceSync *obsdk.MultiDeviceSyncConfig `yaml:"multi_device_sync,omitempty"`
	TimestampReset  *obsdk.TimestampResetConfig  `yaml:"timestamp_reset,omitempty"`
}

func runPropsStruct(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	var r structReport
	if t, err := dev.Temperature(); err == nil {
		r.Temperature = &t
	} else {
		a.log.Debug(ctx, "temperature unavailable", "error", err)
	}
	if b, err := dev.BaselineCalibration(); err == nil {
		r.Baseline = &b
	} else {
		a.log.Debug(ctx, "baseline unavailable", "error", err)
	}
	if s, err := dev.MultiDeviceSyncConfig(); err == nil {
		r.MultiDeviceSync = &s
	} else {
		a.log.Debug(ctx, "multi-device sync unavailable", "error", err)
	}
	if t, err := dev.TimestampResetConfig(); err == nil {
		r.TimestampReset = &t
	} else {
		a.log.Debug(ctx, "timestamp reset unavailable", "error", err)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func typeName(t obsdk.PropertyType) string {
	switch t {
	case obsdk.PropertyBool:
		return "bool"
	case obsdk.PropertyInt:
		return "int"
	case obsdk.PropertyFloat:
		return "float"
	case obsdk.PropertyStruct:
		return "struct"
	}
	return strconv.Itoa(int(t))
}

func permName(p obsdk.PermissionType) string {
	switch p {
	case obsdk.PermissionRead:
		return "r"
	case obsdk.PermissionWrite:
		return "w"
	case obsdk.PermissionReadWrite:
		return "rw"
	}
	return "-"
}
