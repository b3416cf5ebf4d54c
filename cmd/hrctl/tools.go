package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	// search <tool>
	var query, cursor, filtersJSON string
	var limit int
	searchCmd := &cobra.Command{
		Use:   "search TOOL",
		Short: "Run a search tool (search_employees, search_timeoff, search_tickets)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{}
			if query != "" {
				input["query"] = query
			}
			if limit > 0 {
				input["limit"] = limit
			}
			if cursor != "" {
				input["cursor"] = cursor
			}
			if filtersJSON != "" {
				var filters map[string]string
				if err := json.Unmarshal([]byte(filtersJSON), &filters); err != nil {
					return fmt.Errorf("--filters must be a JSON object of strings: %w", err)
				}
				input["filters"] = filters
			}
			out, err := invokeTool(args[0], input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	searchCmd.Flags().StringVarP(&query, "query", "q", "", "Free-text query")
	searchCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Page size (1-100)")
	searchCmd.Flags().StringVar(&cursor, "cursor", "", "Continuation cursor from a previous page")
	searchCmd.Flags().StringVarP(&filtersJSON, "filters", "f", "", `Structured filters as JSON, e.g. '{"status":"open"}'`)
	rootCmd.AddCommand(searchCmd)

	// get <tool> <key-field> <key>
	getCmd := &cobra.Command{
		Use:   "get TOOL FIELD KEY",
		Short: "Fetch one record, e.g. get get_employee employeeId E1",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := invokeTool(args[0], map[string]any{args[1]: args[2]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	rootCmd.AddCommand(getCmd)

	// stage <action> --input '{...}'
	var inputJSON string
	stageCmd := &cobra.Command{
		Use:   "stage ACTION",
		Short: "Stage a write action; prints the pending_confirmation envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input map[string]any
			if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
				return fmt.Errorf("--input must be a JSON object: %w", err)
			}
			out, err := invokeTool(args[0], input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	stageCmd.Flags().StringVarP(&inputJSON, "input", "i", "{}", "Action input as JSON")
	rootCmd.AddCommand(stageCmd)

	// execute <action> <confirmation-id>
	executeCmd := &cobra.Command{
		Use:   "execute ACTION CONFIRMATION_ID",
		Short: "Execute a previously staged action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := executeAction(args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	rootCmd.AddCommand(executeCmd)

	// health
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show per-backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doGet(fmt.Sprintf("%s/api/health/backends", apiFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)
}
