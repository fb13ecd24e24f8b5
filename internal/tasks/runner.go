package tasks

import (
	"context"
	"strings"
	"time"
	"tieba-assist/internal/components/telemetry"
	"tieba-assist/internal/notify"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	report_runner_task = "runner.task"
)

// notifications still go out for a run that was cancelled, bounded by this timeout
const notifyTimeout = 30 * time.Second

// Runner runs tasks one after the other and broadcasts each summary once the task is done.
type Runner struct {
	tasks []Task
	sinks []notify.Sink
	tel   telemetry.API
}

func NewRunner(tasks []Task, sinks []notify.Sink, tel telemetry.API) Runner {
	return Runner{tasks: tasks, sinks: sinks, tel: tel}
}

func (r Runner) Run(ctx context.Context) []Summary {
	runId := uuid.NewString()
	tel := telemetry.NewScopedAPI(runId, r.tel)

	var summaries []Summary
	for _, task := range r.tasks {
		if ctx.Err() != nil {
			tel.ReportWarning(report_runner_task, "skipped", task.Name(), ctx.Err())
			continue
		}

		summary, err := task.Run(ctx)
		if err != nil {
			tel.ReportWarning(report_runner_task, task.Name(), err)
		}
		summaries = append(summaries, summary)

		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		notify.Broadcast(notifyCtx, r.sinks, summary.Message, tel)
		cancel()

		tel.ReportInfo(
			"task done",
			task.Name(),
			summary.Succeeded,
			summary.Failed,
			strings.TrimSpace(humanize.RelTime(summary.Started, summary.Finished, "", "")),
		)
	}
	return summaries
}
