package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eaa-compliance-agent/internal/bootstrap"
	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/workflows"
)

type deliverFlags struct {
	taskID        int
	workspaceID   int
	agentID       int
	input         string
	description   string
	humanResponse string
}

// action builds a do-task delivery as the host would send it.
func (f deliverFlags) action() modal.TaskAction {
	task := &modal.Task{ID: f.taskID, Description: f.description, Input: f.input}
	if f.humanResponse != "" {
		task.HumanAssistanceRequests = []modal.HumanAssistanceRequest{{
			Type:          string(modal.AssistanceText),
			HumanResponse: f.humanResponse,
		}}
	}
	return modal.TaskAction{
		Type:      "do-task",
		Me:        modal.Agent{ID: f.agentID},
		Workspace: modal.Workspace{ID: f.workspaceID},
		Task:      task,
	}
}

func deliverTaskCMD() *cobra.Command {
	var f deliverFlags
	var cmd = &cobra.Command{
		Use:   "deliver-task",
		Short: "Deliver a task to the durable workflow, as the host's do-task webhook would",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			c, err := bootstrap.DialTemporal(cfg, logger)
			if err != nil {
				return fmt.Errorf("dial temporal: %w", err)
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			d, err := workflows.NewService(c, cfg.TemporalTaskQueue, cfg.ActivityTimeout).Deliver(ctx, f.action())
			if err != nil {
				return err
			}
			verb := "signalled"
			if d.Started {
				verb = "started"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s workflow: WorkflowID=%s RunID=%s\n", verb, d.WorkflowID, d.RunID)
			return err
		},
	}
	cmd.Flags().IntVar(&f.taskID, "task-id", 0, "host task id")
	cmd.Flags().IntVar(&f.workspaceID, "workspace-id", 0, "host workspace id")
	cmd.Flags().IntVar(&f.agentID, "agent-id", 0, "agent id")
	cmd.Flags().StringVar(&f.input, "input", "", "task input text")
	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.humanResponse, "human-response", "", "answer to the last assistance request")
	_ = cmd.MarkFlagRequired("task-id")
	_ = cmd.MarkFlagRequired("workspace-id")
	return cmd
}
