package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk"
	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/model"
)

func newTestServer() (*Server, *agentdesk.Desk) {
	desk := agentdesk.New()
	return New(desk), desk
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestInitAndRunAll(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	w, body := do(t, h, http.MethodPost, "/simulate/init")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(6), body["registered"])

	w, body = do(t, h, http.MethodPost, "/simulate/run-all")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(6), body["total"])

	results := body["results"].([]any)
	require.Len(t, results, 6)
	for _, r := range results {
		assert.Equal(t, "passed", r.(map[string]any)["status"])
	}
}

func TestDashboard(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	do(t, h, http.MethodPost, "/simulate/init")
	w, body := do(t, h, http.MethodGet, "/simulate/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(6), body["total"])
	byStatus := body["by_status"].(map[string]any)
	assert.Equal(t, float64(6), byStatus["pending"])

	do(t, h, http.MethodPost, "/simulate/run-all")
	_, body = do(t, h, http.MethodGet, "/simulate/dashboard")
	byStatus = body["by_status"].(map[string]any)
	assert.Equal(t, float64(6), byStatus["passed"])
}

func TestTimeline(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	w, body := do(t, h, http.MethodGet, "/simulate/timeline/SCENE-001")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["error"])

	do(t, h, http.MethodPost, "/simulate/init")
	do(t, h, http.MethodPost, "/simulate/run-all")

	w, body = do(t, h, http.MethodGet, "/simulate/timeline/SCENE-001")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SCENE-001", body["scenario_id"])
}

func TestConsensusWithoutSession(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	w, body := do(t, h, http.MethodPost, "/judge/consensus")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestJudgeFlow(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	do(t, h, http.MethodPost, "/simulate/init")
	do(t, h, http.MethodPost, "/simulate/run-all")

	w, body := do(t, h, http.MethodPost, "/judge/session")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "judge_000001", body["id"])

	w, body = do(t, h, http.MethodPost, "/judge/integration")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["passed"])
	assert.Len(t, body["checks"].([]any), 5)

	w, body = do(t, h, http.MethodPost, "/judge/consensus")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SHIP", body["recommendation"])
	assert.Equal(t, float64(100), body["pass_rate"])

	// the session is completed now; a second consensus needs a new session
	w, _ = do(t, h, http.MethodPost, "/judge/consensus")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, h, http.MethodGet, "/judge/report")
	require.Equal(t, http.StatusOK, w.Code)
	sess := body["session"].(map[string]any)
	assert.Equal(t, "completed", sess["status"])
	assert.Len(t, body["judges"].([]any), 5)
}

func TestGatePass(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	w, body := do(t, h, http.MethodGet, "/judge/gate")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PASS", body["gate"])
	assert.Equal(t, "SHIP", body["recommendation"])
}

func TestGateFail(t *testing.T) {
	// a roster that never escalates misses both escalation scenarios, which
	// is release-blocking
	desk := agentdesk.New(func(o *agentdesk.Options) {
		o.Roster = func(tracer core.Tracer) (core.Router, core.AgentExecutor) {
			m := model.NewScriptedModel("complacent").
				SetFallback(model.Response{Content: "order status refund troubleshoot reset"})
			registry := agent.NewRegistry()
			registry.Register(agent.NewModelAgent("support", "", "Answer everything yourself.", m))
			return fixedRouter{}, registry
		}
	})
	srv := New(desk)
	h := srv.Handler()

	w, body := do(t, h, http.MethodGet, "/judge/gate")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "FAIL", body["gate"])
	assert.Equal(t, "BLOCK", body["recommendation"])
}

type fixedRouter struct{}

func (fixedRouter) Route(*core.Session, string) (core.RouteDecision, error) {
	return core.RouteDecision{Agent: "support", Reason: "single agent"}, nil
}
