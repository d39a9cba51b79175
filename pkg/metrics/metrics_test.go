package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/organizations", "200"))
	RecordAPIRequest("GET", "/organizations", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/organizations", "200"))
	assert.Equal(t, before+1, after)
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(APIActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(APIActiveRequests))
}

func TestRecordAIRequest(t *testing.T) {
	before := testutil.ToFloat64(AIRequests.WithLabelValues("openrouter", "error"))
	RecordAIRequest("openrouter", time.Second, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(AIRequests.WithLabelValues("openrouter", "error")))
}

func TestRecordJob(t *testing.T) {
	before := testutil.ToFloat64(JobsProcessed.WithLabelValues("summarize_asset", "completed"))
	RecordJob("summarize_asset", "completed", time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(JobsProcessed.WithLabelValues("summarize_asset", "completed")))
}
