package jobs

import (
	"context"

	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
)

// PipelineHandler runs a sync for each job and copies the outcome onto it.
func PipelineHandler(deps pipeline.Deps) JobHandler {
	return func(ctx context.Context, job *SyncJob) error {
		res := pipeline.Run(ctx, deps, job.Options)
		summary, err := res.Unwrap()
		if err != nil {
			return err
		}

		job.RunID = summary.RunID
		job.Matched = summary.Matched
		job.Updated = summary.Updated
		job.Message = summary.Message
		return nil
	}
}

