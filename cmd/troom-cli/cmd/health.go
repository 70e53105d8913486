package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var url string
	var timeout time.Duration

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running server's /health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimSuffix(url, "/")+"/health", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("health probe failed: %w", err)
			}
			defer resp.Body.Close()

			var body struct {
				Status    string    `json:"status"`
				Timestamp time.Time `json:"timestamp"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("decode health response: %w", err)
			}
			if resp.StatusCode != http.StatusOK || body.Status != "ok" {
				return fmt.Errorf("server unhealthy: HTTP %d, status %q", resp.StatusCode, body.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok (server time %s)\n", body.Timestamp.Format(time.RFC3339))
			return nil
		},
	}

	healthCmd.Flags().StringVar(&url, "url", "http://localhost:5000", "Base URL of the server")
	healthCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return healthCmd
}
