// Command tapyrus-signerd is the federation signer's CLI front end. Per
// spec.md §1 the process's RPC/pub-sub wiring and the CLI shell itself are
// out of scope for the core — this binary exposes only the one CLI
// surface spec.md §6 specifies the output contract for: createnodevss,
// the long-term key-share bootstrap every federation member runs once,
// out of band, before the round driver (internal/driver) can start.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tapyrus-signerd",
		Short:         "Federated block-signing daemon setup utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCreateNodeVSSCmd())
	return root
}
