package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twizzar/fixturegen/internal/config"
)

func newInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default " + config.FileName,
		Long: `Write a commented default ` + config.FileName + ` into path (default: the current
directory). An existing file is left untouched unless --force is given.
With --dry-run the file is printed instead of written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args, opts, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// runInit writes the default configuration for the project at args[0].
func runInit(cmd *cobra.Command, args []string, opts *options, force bool) error {
	cfg := config.Default()
	cfg.Cache.Path = config.DefaultCachePath

	data, err := config.Commented(cfg)
	if err != nil {
		return err
	}

	if opts.dryRun {
		_, _ = cmd.OutOrStdout().Write(data)
		return nil
	}

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := opts.configPath
	if path == "" {
		path = filepath.Join(dir, config.FileName)
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
