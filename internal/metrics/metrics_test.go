package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAction(t *testing.T) {
	before := testutil.ToFloat64(ActionsTotal.WithLabelValues("weather", "success"))
	RecordAction("weather", "success")
	RecordAction("weather", "success")
	assert.Equal(t, before+2, testutil.ToFloat64(ActionsTotal.WithLabelValues("weather", "success")))
}

func TestRecordChatRequest(t *testing.T) {
	before := testutil.ToFloat64(ChatRequests.WithLabelValues("fallback"))
	RecordChatRequest("fallback")
	assert.Equal(t, before+1, testutil.ToFloat64(ChatRequests.WithLabelValues("fallback")))
}

func TestRecordLatencies(t *testing.T) {
	RecordLLMLatency("openrouter", nil, 120*time.Millisecond)
	RecordLLMLatency("openrouter", errors.New("boom"), time.Second)
	RecordExternalCall("calendar", nil, 80*time.Millisecond)
	RecordHTTPRequest("POST", "/api/chat", "200", 5*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(LLMLatency))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(ExternalCallDuration), 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration), 1)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", status(nil))
	assert.Equal(t, "error", status(errors.New("x")))
}
