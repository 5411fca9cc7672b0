// Command splashgen serves and runs marketing collateral generation: splash
// pages, emails, banners and blurbs drafted by a language model from a
// company's website.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "splashgen",
		Short:         "Marketing collateral generation service",
		Long:          "Splashgen turns a company website and a short instruction into splash pages, emails, banners and blurbs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newGenerateCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "splashgen:", err)
		os.Exit(1)
	}
}
