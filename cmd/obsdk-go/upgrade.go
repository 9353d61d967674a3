package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orbbec/obsdk-go/pkg/obsdk"
)

func upgradeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade IMAGE",
		Short: "Flash a firmware image",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(v, runUpgrade),
	}
	cmd.Flags().Bool("async", false, "return once the transfer starts and follow progress")
	cmd.Flags().Duration("timeout", 10*time.Minute, "give up waiting for the upgrade after this long")
	return cmd
}

func runUpgrade(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	async, _ := cmd.Flags().GetBool("async")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	result := make(chan error, 1)
	err = dev.Upgrade(args[0], async, func(st obsdk.UpgradeState, msg string, percent uint8) {
		a.out.Printf("%3d%%  %s\n", percent, msg)
		var err error
		switch {
		case st == obsdk.UpgradeDone:
		case st < 0:
			err = fmt.Errorf("firmware upgrade failed (state %d): %s", st, msg)
		default:
			return
		}
		select {
		case result <- err:
		default:
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case err := <-result:
		if err == nil {
			a.out.Printf("upgrade complete; reboot the device to load the new firmware\n")
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("firmware upgrade: %w", ctx.Err())
	}
}
