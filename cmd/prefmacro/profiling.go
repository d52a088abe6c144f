package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prefmacro/internal/prof"
)

// setupProfiling starts the runtime profiles requested by flags; nil when
// none are.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	pf := cmd.Root().PersistentFlags()
	var (
		opts prof.Options
		err  error
	)
	if opts.CPU, err = pf.GetString("cpuprofile"); err != nil {
		return nil, fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if opts.Mem, err = pf.GetString("memprofile"); err != nil {
		return nil, fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if opts.Trace, err = pf.GetString("exec-trace"); err != nil {
		return nil, fmt.Errorf("failed to get exec-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return nil, nil
	}
	return prof.Start(opts)
}
