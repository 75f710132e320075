package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"captionrelay/internal/api"
)

func newEndpointsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List caption mirrors in the order they are tried",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			endpoints := api.FromEndpoints(cfg.Endpoints())
			overrides := cfg.Overrides().Len()
			if asJSON {
				return writeJSON(cmd, api.EndpointListResponse{Endpoints: endpoints, Overrides: overrides})
			}

			rows := make([][]string, 0, len(endpoints))
			for _, endpoint := range endpoints {
				rows = append(rows, []string{strconv.Itoa(endpoint.Priority), endpoint.Provider, endpoint.URL})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Provider", "URL"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Overrides: %d  Request timeout: %s\n", overrides, cfg.RequestTimeout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the endpoint list as JSON")
	return cmd
}
