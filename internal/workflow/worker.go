package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// NewWorker builds a Temporal worker serving the refresh workflow and its
// activities on the given task queue. The caller runs and stops it.
func NewWorker(c client.Client, taskQueue string, acts *Activities) worker.Worker {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(RefreshWorkflow)
	w.RegisterActivity(acts)
	return w
}

// Trigger starts one refresh execution and waits for its result.
func Trigger(ctx context.Context, c client.Client, taskQueue string, input RefreshInput) (*RefreshResult, error) {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("refresh-%s", time.Now().UTC().Format("20060102-150405")),
		TaskQueue: taskQueue,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, RefreshWorkflow, input)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: start refresh")
	}

	var result RefreshResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, eris.Wrap(err, "workflow: refresh execution")
	}
	return &result, nil
}

// Schedule registers a cron-scheduled refresh execution. Temporal keeps the
// schedule server-side, so this is a one-shot registration, not a loop.
func Schedule(ctx context.Context, c client.Client, taskQueue, cron string) (string, error) {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	opts := client.StartWorkflowOptions{
		ID:           "refresh-cron",
		TaskQueue:    taskQueue,
		CronSchedule: cron,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, RefreshWorkflow, RefreshInput{})
	if err != nil {
		return "", eris.Wrap(err, "workflow: schedule refresh")
	}
	return run.GetID(), nil
}
