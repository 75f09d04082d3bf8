package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-follow/internal/httpc"
	"github.com/teslashibe/go-follow/pkg/drone"
	"github.com/teslashibe/go-follow/pkg/web"
)

// Commands that drive a running `follow run` through its control surface.

var serverURL string

func apiURL(path string) string {
	return strings.TrimRight(serverURL, "/") + "/api" + path
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the lock, flight and frame loop state of a running controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		var st web.StatusResponse
		if err := httpc.GetJSON(cmd.Context(), apiURL("/status"), &st); err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock NAME",
	Short: "Lock onto an enrolled identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp web.LockResponse
		if err := httpc.PostJSON(cmd.Context(), apiURL("/lock"), web.LockRequest{Name: args[0]}, &resp); err != nil {
			return err
		}
		fmt.Printf("Locked on %s\n", resp.Target)
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:     "unlock",
	Aliases: []string{"stop-following"},
	Short:   "Stop following",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := httpc.PostJSON(cmd.Context(), apiURL("/unlock"), nil, nil); err != nil {
			return err
		}
		fmt.Println("Stopped following")
		return nil
	},
}

var toggleWait bool

var toggleCmd = &cobra.Command{
	Use:   "takeoff-land",
	Short: "Take off when landed, land when flying",
	RunE: func(cmd *cobra.Command, args []string) error {
		var task drone.TaskInfo
		if err := httpc.PostJSON(cmd.Context(), apiURL("/flight/toggle"), nil, &task); err != nil {
			return err
		}
		fmt.Printf("%s started (task %s)\n", task.Kind, task.ID)
		if !toggleWait {
			return nil
		}

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for task.State == drone.TaskRunning {
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-ticker.C:
			}
			if err := httpc.GetJSON(cmd.Context(), apiURL("/flight/tasks/"+task.ID), &task); err != nil {
				return err
			}
		}
		if task.State == drone.TaskFailed {
			return fmt.Errorf("%s failed: %s", task.Kind, task.Error)
		}
		fmt.Printf("%s complete\n", task.Kind)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, lockCmd, unlockCmd, toggleCmd} {
		c.Flags().StringVar(&serverURL, "url", "http://localhost:8080", "control surface URL")
		rootCmd.AddCommand(c)
	}
	toggleCmd.Flags().BoolVar(&toggleWait, "wait", false, "poll until the maneuver finishes")
}
