package jobs

import (
	"context"
	"testing"

	"github.com/dvloznov/amazon-ynab-sync/internal/pages"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineHandler_FailureBecomesError(t *testing.T) {
	handler := PipelineHandler(pipeline.Deps{Pages: pages.MemorySource{}})
	job := &SyncJob{JobID: "j1"}

	err := handler(context.Background(), job)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch-transactions")
	assert.Empty(t, job.Message)
	assert.Zero(t, job.Updated)
}
