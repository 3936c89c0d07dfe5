package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.MutationsTotal)
	assert.NotNil(t, m.SavesTotal)
	assert.NotNil(t, m.SaveDuration)
	assert.NotNil(t, m.SaveBytesWritten)
	assert.NotNil(t, m.ArtifactsActive)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestMetrics_RecordMutation(t *testing.T) {
	m := New()
	m.RecordMutation("script", "create_artifact")
	m.RecordMutation("script", "create_artifact")
	m.RecordMutation("weapon", "delete_folder")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `forge_mutations_total{kind="script",op="create_artifact"} 2`)
	assert.Contains(t, body, `forge_mutations_total{kind="weapon",op="delete_folder"} 1`)
}

func TestMetrics_RecordSave(t *testing.T) {
	m := New()
	m.RecordSave("explicit", "ok", 0.05)
	m.RecordSave("auto", "error", 0.01)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `forge_saves_total{status="ok",trigger="explicit"} 1`)
	assert.Contains(t, body, `forge_saves_total{status="error",trigger="auto"} 1`)
	assert.Contains(t, body, "forge_save_duration_seconds")
}

func TestMetrics_SetSaveBytes(t *testing.T) {
	m := New()
	m.SetSaveBytes(2048)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "forge_save_bytes_written 2048")
}

func TestMetrics_SetArtifacts(t *testing.T) {
	m := New()
	m.SetArtifacts("script", 4)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `forge_artifacts_active{kind="script"} 4`)
}

func TestMetrics_RecordError(t *testing.T) {
	m := New()
	m.RecordError("persist", "write_failed")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `forge_errors_total{module="persist",type="write_failed"} 1`)
}

func TestMetrics_NilReceiverSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordMutation("script", "create_artifact")
		m.RecordSave("auto", "ok", 0.1)
		m.SetSaveBytes(1)
		m.SetArtifacts("script", 1)
		m.RecordError("persist", "x")
	})
}
