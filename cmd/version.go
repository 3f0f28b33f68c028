package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version  = "0.2.1"
	codename = "xui-manager"
	intro    = "Profile manager for 3x-ui panels."
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current version of xui-manager",
		Run: func(cmd *cobra.Command, args []string) {
			showVersion()
		},
	})
}

func showVersion() {
	fmt.Printf("%s %s (%s) \n", codename, version, intro)
}
