package cli

import (
	"fmt"
	"time"

	"github.com/agentx-labs/aipkg/internal/config"
	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/integrations"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/.aipkg/config.yaml.

Keys:
  ide           default IDE for install (claude-code)
  strategy      default conflict strategy (skip)
  scope         default scope (project)
  lock_timeout  how long to wait for a busy ledger (10s)
  cache_dir     where git sources are cloned`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := checkSetting(key, value); err != nil {
			return err
		}
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkSetting(args[0], ""); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

// checkSetting rejects unknown keys and, when value is not empty, values
// the commands would refuse later.
func checkSetting(key, value string) error {
	var err error
	switch key {
	case config.KeyIDE:
		if value != "" {
			if _, ok := integrations.ParseToolName(value); !ok {
				err = fmt.Errorf("unknown IDE %q", value)
			}
		}
	case config.KeyStrategy:
		if value != "" {
			_, err = conflict.ParseStrategy(value)
		}
	case config.KeyScope:
		if value != "" {
			_, err = ledger.ParseScope(value)
		}
	case config.KeyLockTimeout:
		if value != "" {
			_, err = time.ParseDuration(value)
		}
	case config.KeyCacheDir:
	default:
		err = fmt.Errorf("unknown config key %q", key)
	}
	return err
}
