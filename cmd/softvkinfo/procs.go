package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/softvk"
	"github.com/gogpu/softvk/dispatch"
	"github.com/gogpu/softvk/extension"
)

func newProcsCommand() *cobra.Command {
	var (
		scope string
		exts  []string
	)
	cmd := &cobra.Command{
		Use:   "procs",
		Short: "List the entry points visible from a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := parseScope(scope)
			if err != nil {
				return err
			}
			var caps extension.Set
			for _, name := range exts {
				e, ok := extension.Lookup(name)
				if !ok {
					return fmt.Errorf("unknown extension %q", name)
				}
				caps = caps.Union(extension.SetOf(e))
			}
			names := softvk.ProcNames(s, caps)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d entry points visible from %v\n", len(names), s)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "instance", "lookup scope: library, instance or device")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "enabled extension (repeatable)")
	return cmd
}

func parseScope(s string) (dispatch.Scope, error) {
	switch s {
	case "library":
		return dispatch.ScopeLibrary, nil
	case "instance":
		return dispatch.ScopeInstance, nil
	case "device":
		return dispatch.ScopeDevice, nil
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}
