package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag    string
	callerFlag string
	nameFlag   string
	rolesFlag  string
	rootCmd    = &cobra.Command{
		Use:   "hrctl",
		Short: "CLI client for the HR gateway tool API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "HR gateway base URL")
	rootCmd.PersistentFlags().StringVarP(&callerFlag, "caller", "c", "", "Caller id (required)")
	rootCmd.PersistentFlags().StringVarP(&nameFlag, "name", "n", "", "Caller display name")
	rootCmd.PersistentFlags().StringVarP(&rolesFlag, "roles", "r", "", "Comma-separated caller roles")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
