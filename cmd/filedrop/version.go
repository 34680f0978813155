package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the filedrop version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("filedrop %s\n", version)
		},
	}
}
