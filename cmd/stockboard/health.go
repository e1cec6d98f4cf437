package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/stockboard/internal/apiclient"
	"github.com/newthinker/stockboard/internal/panel"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the analysis API once and exit",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := apiclient.New(cfg.API.BaseURL, apiclient.WithTimeout(cfg.API.Timeout))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
	defer cancel()

	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("api unreachable: %s", panel.Message(err))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "API\t%s\n", client.BaseURL())
	fmt.Fprintf(w, "Status\t%s\n", h.Status)
	fmt.Fprintf(w, "LLM connected\t%t\n", h.LLMConnected)
	fmt.Fprintf(w, "Provider\t%s\n", h.Provider)
	fmt.Fprintf(w, "Model\t%s\n", h.Model)
	if err := w.Flush(); err != nil {
		return err
	}

	if !h.OK() {
		return fmt.Errorf("api degraded")
	}
	return nil
}
