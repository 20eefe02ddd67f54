package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Worker processes outline jobs.
type Worker struct {
	proc *Processor
	log  *slog.Logger
}

func NewWorker(proc *Processor, log *slog.Logger) *Worker {
	return &Worker{proc: proc, log: log}
}

// Process builds the outline for a job and records the result on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "document", job.Filename)

	job.SetStatus(StatusProcessing, "outlining")
	o, cached, err := w.proc.Outline(ctx, job.Filename, job.FileData())
	if err != nil {
		log.Error("outline failed", "error", err)
		job.AddError(fmt.Sprintf("outline: %s", err))
		job.SetStatus(StatusFailed, "outlining")
		return
	}

	job.Complete(o, cached)
	log.Info("outline complete", "headings", len(o.Headings), "cached", cached)
}
