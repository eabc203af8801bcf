package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Write a commented default config file",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if err := config.CreateDefault(cc.CfgPath); err != nil {
				return err
			}

			cc.Statusf("Created %s\n", cc.CfgPath)

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config key, creating the file if needed",
		Long: `Set a single key in the config file. The file is validated with the new
value before it is written; an invalid value leaves the file untouched.

Examples:
  zvmconnector config set host zvm01.example.com
  zvmconnector config set ssl_enabled true
  zvmconnector config set cache_interval 60s`,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Args:        cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			if err := config.SetKey(cc.CfgPath, args[0], args[1]); err != nil {
				return err
			}

			cc.Logger.Info("config key set", "key", args[0], "path", cc.CfgPath)
			cc.Statusf("Set %s in %s\n", args[0], cc.CfgPath)

			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	if cc.Cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if cc.Flags.JSON {
		return printJSON(os.Stdout, cc.Cfg)
	}

	return config.RenderEffective(cc.Cfg, cc.CfgPath, os.Stdout)
}
