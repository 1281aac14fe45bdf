package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the roster server is running",
		Long:  "Check the status of the roster server, including process state and HTTP health.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	pid, err := readPID()
	if err != nil {
		fmt.Println("Server is not running (no PID file found).")
		return nil
	}

	if !isProcessRunning(pid) {
		removePID()
		fmt.Println("Server is not running (stale PID file removed).")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	healthAddr := fmt.Sprintf("http://%s:%d/healthz", host, cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(healthAddr)
	if err != nil {
		fmt.Printf("Server process is running (PID %d) but not responding to HTTP.\n", pid)
		fmt.Printf("  Logs: %s\n", logFilePath())
		return nil
	}
	defer resp.Body.Close()

	var health struct {
		Version string `json:"version"`
		Uptime  string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	fmt.Printf("Server is running (PID %d)\n", pid)
	fmt.Printf("  Health:  %s (%d)\n", healthAddr, resp.StatusCode)
	if health.Version != "" {
		fmt.Printf("  Version: %s\n", health.Version)
	}
	if health.Uptime != "" {
		fmt.Printf("  Uptime:  %s\n", health.Uptime)
	}
	fmt.Printf("  Logs:    %s\n", logFilePath())
	return nil
}
