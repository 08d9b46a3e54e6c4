package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/stateart/internal/config"
	"github.com/vango-dev/stateart/internal/errors"
	"github.com/vango-dev/stateart/pkg/persist"
	"github.com/vango-dev/stateart/pkg/stateart"
)

func inspectCmd() *cobra.Command {
	var (
		dir    string
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <store>",
		Short: "Print the persisted snapshot of a store",
		Long: `Print the snapshot a persisted store saved to the configured
storage backend.

Examples:
  stateart inspect counter
  stateart inspect userProfile --yaml
  stateart inspect counter --dir ./app`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, dir, args[0], asYAML)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory holding the configuration file")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")

	return cmd
}

func runInspect(cmd *cobra.Command, dir, store string, asYAML bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := openBackend(ctx, dir)
	if err != nil {
		return err
	}
	defer backend.Close()

	key := stateart.StorageKey(store)
	data, err := backend.Load(ctx, key)
	if stderrors.Is(err, persist.ErrNotFound) {
		return errors.New("E140").WithStore(store).WithDetailf("key %q", key)
	}
	if err != nil {
		return errors.New("E080").WithStore(store).Wrap(err)
	}

	var snapshot any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return errors.New("E082").WithStore(store).Wrap(err)
	}

	var out []byte
	if asYAML {
		out, err = yaml.Marshal(snapshot)
	} else {
		out, err = json.MarshalIndent(snapshot, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func listCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the persisted snapshot keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			backend, err := openBackend(ctx, dir)
			if err != nil {
				return err
			}
			defer backend.Close()

			keys, err := backend.Keys(ctx)
			if err != nil {
				return errors.New("E080").Wrap(err)
			}
			if len(keys) == 0 {
				warn(cmd, "No snapshots saved")
				return nil
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory holding the configuration file")

	return cmd
}

// openBackend loads the configuration in dir and opens its storage backend.
func openBackend(ctx context.Context, dir string) (persist.Backend, error) {
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, err
	}
	return persist.Open(ctx, cfg)
}
