package main

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tsmathis/Dilatometry-Analyst/internal/batch"
	"github.com/tsmathis/Dilatometry-Analyst/internal/files"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

func newRootCommand(fsys afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	a := &app{fs: fsys, stdout: stdout, stderr: stderr}
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "dilatometry",
		Short:         "Baseline correction and cycle averaging for electrochemical dilatometry",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")

	cmd.AddCommand(
		newProcessCommand(a, opts),
		newBatchCommand(a, opts),
		newVersionCommand(stdout),
	)
	return cmd
}

type processOptions struct {
	labels []string
}

func newProcessCommand(a *app, opts *globalOptions) *cobra.Command {
	var o processOptions
	cmd := &cobra.Command{
		Use:   "process FILE...",
		Short: "Process one or more measurement files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(o.labels) > 0 && len(o.labels) != len(args) {
				return usagef("got %d labels for %d files", len(o.labels), len(args))
			}
			if err := a.setup(opts, cmd.Flags()); err != nil {
				return err
			}
			defer a.teardown()

			inputs := make([]domain.FileMetadata, len(args))
			for i, path := range args {
				label := files.Stem(path)
				if len(o.labels) > 0 {
					label = o.labels[i]
				}
				inputs[i] = domain.FileMetadata{
					Label:      label,
					Path:       path,
					Experiment: domain.ExperimentType(a.cfg.Batch.Experiment),
					Device:     domain.DeviceType(a.cfg.Batch.Device),
				}
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			// Explicit files never run best-effort: every named file must succeed.
			coord := batch.NewCoordinator(p, nil, batch.Options{Workers: a.cfg.Batch.Workers}, a.logger, a.metrics)
			report, err := coord.Run(cmd.Context(), inputs)
			if err != nil {
				return err
			}

			processed := report.Session.Files()
			a.summarize(processed)
			return a.export(processed, defaultName(processed, ""))
		},
	}
	opts.addFlags(cmd.Flags())
	cmd.Flags().StringSliceVarP(&o.labels, "label", "l", nil, "Label for each file, in argument order (default: file name without extension)")
	return cmd
}

type batchOptions struct {
	pattern    string
	workers    int
	bestEffort bool
}

func newBatchCommand(a *app, opts *globalOptions) *cobra.Command {
	var o batchOptions
	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Process every measurement file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(opts, cmd.Flags()); err != nil {
				return err
			}
			defer a.teardown()

			flags := cmd.Flags()
			if flags.Changed("pattern") {
				a.cfg.Batch.Pattern = o.pattern
			}
			if flags.Changed("workers") {
				if o.workers < 0 {
					return usagef("--workers must not be negative")
				}
				a.cfg.Batch.Workers = o.workers
			}
			if flags.Changed("best-effort") {
				a.cfg.Batch.BestEffort = o.bestEffort
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			dir := args[0]
			coord := batch.NewCoordinator(p, files.NewDiscovery(a.fs, ""), batch.Options{
				Workers:    a.cfg.Batch.Workers,
				BestEffort: a.cfg.Batch.BestEffort,
				Pattern:    a.cfg.Batch.Pattern,
				Experiment: domain.ExperimentType(a.cfg.Batch.Experiment),
				Device:     domain.DeviceType(a.cfg.Batch.Device),
			}, a.logger, a.metrics)

			report, err := coord.RunDir(cmd.Context(), dir)
			if err != nil {
				return err
			}

			processed := report.Session.Files()
			a.summarize(processed)
			if err := a.export(processed, defaultName(processed, dir)); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "run %s: %d succeeded, %d failed\n", report.RunID, report.Succeeded(), report.Failed())
			if report.Failures.HasErrors() {
				return &report.Failures
			}
			return nil
		},
	}
	opts.addFlags(cmd.Flags())
	cmd.Flags().StringVar(&o.pattern, "pattern", files.DefaultPattern, "Glob matched against file names, case-insensitively")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "Files processed in parallel (0: one per CPU)")
	cmd.Flags().BoolVar(&o.bestEffort, "best-effort", false, "Keep going when a file fails and report every failure at the end")
	return cmd
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(stdout, contracts.Version)
				return
			}
			fmt.Fprintln(stdout, contracts.GetFullVersionString())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
