package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

const maxErrorWidth = 60

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var status string
	var clearFinished bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show recent background tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if clearFinished {
				n, err := db.ClearFinishedTasks(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d finished task(s)\n", n)
				return nil
			}

			var tasks []*domain.Task
			if status != "" {
				tasks, err = db.ListTasksByStatus(cmd.Context(), domain.TaskStatus(status), limit)
			} else {
				tasks, err = db.ListTasks(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			stats, err := db.GetTaskStats(cmd.Context())
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks")
			} else {
				fmt.Fprintln(out, renderTasks(tasks))
			}
			fmt.Fprintf(out, "total=%d queued=%d running=%d completed=%d failed=%d\n",
				stats.Total, stats.Queued, stats.Running, stats.Completed, stats.Failed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", constants.MaxListResults, "Maximum tasks to show")
	cmd.Flags().StringVar(&status, "status", "", "Only show tasks in this status (queued, running, completed, failed)")
	cmd.Flags().BoolVar(&clearFinished, "clear", false, "Delete completed and failed tasks instead of listing")
	return cmd
}

func renderTasks(tasks []*domain.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		key := ""
		if t.DedupeKey != nil {
			key = *t.DedupeKey
		}
		lastErr := ""
		if t.LastError != nil {
			lastErr = truncate(*t.LastError, maxErrorWidth)
		}
		rows = append(rows, []string{
			shortID(t.ID),
			string(t.Type),
			string(t.Status),
			fmt.Sprintf("%d/%d", t.Attempts, t.MaxAttempts),
			key,
			t.RunAt.Local().Format(time.DateTime),
			lastErr,
		})
	}
	return renderTable([]string{"ID", "Type", "Status", "Attempts", "Key", "Run At", "Last Error"}, rows, 4)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var retry bool

	cmd := &cobra.Command{
		Use:   "submit <album-id>",
		Short: "Queue the batch orchestrator for an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			albumID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || albumID <= 0 {
				return fmt.Errorf("album id must be a positive integer, got %q", args[0])
			}

			ingest, err := ctx.ingest(cmd.Context())
			if err != nil {
				return err
			}

			var task *domain.Task
			if retry {
				task, err = ingest.RetryBatch(cmd.Context(), albumID)
			} else {
				task, err = ingest.SubmitBatch(cmd.Context(), albumID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s task %s for album %d\n", task.Type, task.ID, albumID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&retry, "retry", false, "Requeue failed uploads of a failed batch first")
	return cmd
}
