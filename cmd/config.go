package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/config"
	"github.com/msalah0e/pdbview/internal/snapshot"
	"github.com/msalah0e/pdbview/internal/ui"
	"github.com/msalah0e/pdbview/internal/view"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit pdbview settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Run: func(cmd *cobra.Command, args []string) {
				if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
					fail(err)
				}
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(config.Path())
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default config file if none exists",
			Run: func(cmd *cobra.Command, args []string) {
				if err := config.EnsureExists(); err != nil {
					fail(err)
				}
				ui.Good.Printf("  %s %s\n", ui.StatusIcon(true), config.Path())
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set one value, e.g. view.representation sphere",
			Args:  cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				c := config.Load()
				if err := setConfigValue(c, args[0], args[1]); err != nil {
					fail(err)
				}
				if err := config.Save(c); err != nil {
					fail(err)
				}
				ui.Good.Printf("  %s %s = %s\n", ui.StatusIcon(true), args[0], args[1])
			},
		},
	)
	return cmd
}

// setConfigValue validates and sets one dotted key.
func setConfigValue(c *config.Config, key, value string) error {
	var err error
	switch key {
	case "ui.color":
		c.UI.Color, err = strconv.ParseBool(value)
	case "fetch.endpoint":
		c.Fetch.Endpoint = value
	case "fetch.timeout_secs":
		c.Fetch.TimeoutSecs, err = strconv.Atoi(value)
	case "fetch.cache":
		c.Fetch.Cache, err = strconv.ParseBool(value)
	case "fetch.cache_ttl_hours":
		c.Fetch.CacheTTLHours, err = strconv.Atoi(value)
	case "view.representation":
		_, err = view.ParseRepresentation(value)
		c.View.Representation = value
	case "view.filter":
		_, err = view.ParseFilter(value)
		c.View.Filter = value
	case "view.size":
		var z view.SizeSelection
		z, err = view.ParseSize(value)
		c.View.Size = string(z)
	case "view.protein_radius":
		c.View.ProteinRadius, err = parseRadius(value)
	case "view.water_radius":
		c.View.WaterRadius, err = parseRadius(value)
	case "view.highlight":
		c.View.Highlight, err = strconv.ParseBool(value)
	case "serve.addr":
		c.Serve.Addr = value
	case "serve.watch_debounce_ms":
		c.Serve.WatchDebounceMS, err = strconv.Atoi(value)
	case "snapshot.width":
		c.Snapshot.Width, err = strconv.Atoi(value)
	case "snapshot.height":
		c.Snapshot.Height, err = strconv.Atoi(value)
	case "snapshot.background":
		_, err = snapshot.ParseColor(value)
		c.Snapshot.Background = value
	case "log.level":
		switch value {
		case "debug", "info", "warn", "error":
			c.Log.Level = value
		default:
			err = fmt.Errorf("unknown level %q", value)
		}
	case "hooks.post_load":
		c.Hooks.PostLoad = value
	case "hooks.post_end":
		c.Hooks.PostEnd = value
	case "log.development":
		c.Log.Development, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func parseRadius(s string) (float64, error) {
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !view.ValidRadius(r) || r < view.MinRadius || r > view.MaxRadius {
		return 0, fmt.Errorf("radius must be between %g and %g", view.MinRadius, view.MaxRadius)
	}
	return r, nil
}
