package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orbbec/obsdk-go/pkg/obsdk/logging"
)

// newRootCommand wires every subcommand to one viper instance. Values come
// from flags, then OBSDK_* environment variables, then obsdk.yaml.
func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("OBSDK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "obsdk-go",
		Short:        "Inspect and stream Orbbec depth cameras",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return readConfig(v)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ./obsdk.yaml)")
	pf.String("simulate", "", `use the simulator: "default" or a scenario YAML file`)
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	pf.String("serial", "", "device serial number (default: first device)")
	pf.String("log-level", "info", "binding log level: debug, info, warn or error")
	pf.String("log-output", "console", "log output: console, file, all or none")
	pf.String("log-file", logging.DefaultFilePath, "log file path for file output")
	pf.Int("log-max-size", logging.DefaultMaxSizeMB, "log file size in MB before rotation")
	pf.Int("log-max-backups", logging.DefaultMaxBackups, "rotated log files to keep")
	pf.Bool("log-json", false, "write JSON log records")
	pf.String("sdk-log-level", "", "native SDK log severity: debug, info, warn, error or off")
	pf.String("sentry-dsn", "", "report binding faults to this Sentry DSN")
	pf.String("sentry-environment", "development", "Sentry environment tag")
	if err := v.BindPFlags(pf); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}

	root.AddCommand(
		versionCommand(v),
		devicesCommand(v),
		streamCommand(v),
		pipelineCommand(v),
		recordCommand(v),
		playCommand(v),
		upgradeCommand(v),
		watchCommand(v),
		propsCommand(v),
	)
	return root
}

func readConfig(v *viper.Viper) error {
	if f := v.GetString("config"); f != "" {
		v.SetConfigFile(f)
	} else {
		v.SetConfigName("obsdk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "obsdk"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
