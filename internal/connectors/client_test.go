package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

type recorded struct {
	method  string
	path    string
	query   string
	body    string
	traceID string
}

func newBackend(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{r.Method, r.URL.Path, r.URL.RawQuery, string(body), r.Header.Get("X-Trace-ID")})
		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			http.Error(w, "no route", http.StatusNotFound)
			return
		}
		h(w)
	}))
	t.Cleanup(srv.Close)

	transport := NewHTTPTransport(srv.URL+"/", time.Second, zap.NewNop(),
		WithTraceID(func(ctx context.Context) string {
			id, _ := ctx.Value(traceKey{}).(string)
			return id
		}),
	)
	return NewClient(transport, "/api/monitoring", "/api"), &calls
}

type traceKey struct{}

func reply(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
}

func TestClient_AgentsToleratesMalformedRecords(t *testing.T) {
	c, calls := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/monitoring/agents": reply(`[
			{"name":"classifier","endpoint":"http://c","health":"HEALTHY","response_time_ms":120,"last_checked":"2026-03-10T12:00:00Z"},
			{"name":"broken","health":42,"response_time_ms":"fast"}
		]`),
	})

	ctx := context.WithValue(context.Background(), traceKey{}, "trace-1")
	agents, err := c.Agents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, domain.GradeHealthy, agents[0].Health)
	require.NotNil(t, agents[0].ResponseTimeMs)
	assert.Equal(t, int64(120), *agents[0].ResponseTimeMs)
	assert.Equal(t, "broken", agents[1].Name)
	assert.Nil(t, agents[1].ResponseTimeMs)

	require.Len(t, *calls, 1)
	assert.Equal(t, "trace-1", (*calls)[0].traceID)
}

func TestClient_TraceIDGeneratedWhenMissing(t *testing.T) {
	c, calls := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/monitoring/summary": reply(`{"total":3}`),
	})

	summary, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(3), summary["total"])
	assert.Len(t, (*calls)[0].traceID, 36)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	c, _ := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/monitoring/health": func(w http.ResponseWriter) {
			http.Error(w, "database down", http.StatusServiceUnavailable)
		},
	})

	_, err := c.SystemHealth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "database down")
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.False(t, IsClientError(err))

	_, err = c.Agent(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsClientError(err))
}

func TestClient_Throttled(t *testing.T) {
	c, _ := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/monitoring/info": func(w http.ResponseWriter) {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})

	_, err := c.Info(context.Background())
	var throttle *ThrottleError
	require.True(t, errors.As(err, &throttle))
	assert.Equal(t, 3*time.Second, throttle.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, StatusOf(err))
}

func TestClient_ApprovalsAndDecision(t *testing.T) {
	c, calls := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/approvals/pending": reply(`{"pending_approvals":[
			{"approval_id":"apr-1","type":"classification","priority":"urgent","status":"pending","requester":"classifier","created_at":"2026-03-10T10:00:00Z","timeout_at":"2026-03-10T11:00:00Z"}
		]}`),
		"POST /api/pipeline/approval/apr-1/decision": reply(`{"success":true}`),
	})

	items, err := c.PendingApprovals(context.Background(), domain.ApprovalFilter{Priority: domain.PriorityUrgent})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].TimeoutAt)
	assert.Nil(t, items[0].EscalationAt)
	assert.Equal(t, "priority=urgent", (*calls)[0].query)

	resp, err := c.SubmitDecision(context.Background(), "apr-1", domain.DecisionForm{Decision: domain.DecisionApproved, Approver: "lead"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(resp))

	var sent domain.DecisionForm
	require.NoError(t, json.Unmarshal([]byte((*calls)[1].body), &sent))
	assert.Equal(t, "lead", sent.Approver)
}

func TestClient_EvolutionsAndOversightEnvelopes(t *testing.T) {
	c, calls := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/evolution/active": reply(`{"active_evolutions":[{"evolution_id":"evo-1","status":"implementing","evolution_type":"bug_fix"}]}`),
		"PUT /api/evolution/evo-1/status": reply(``),
		"GET /api/oversight/workflows/active": reply(`{"success":true,"data":{"workflows":[{"workflow_id":"wf-1"}]}}`),
		"GET /api/oversight/coordinator/status": reply(`{"success":true,"data":{"status":"active"}}`),
		"GET /api/oversight/metrics/quality": reply(`{"success":true,"data":null}`),
	})
	ctx := context.Background()

	evolutions, err := c.ActiveEvolutions(ctx)
	require.NoError(t, err)
	require.Len(t, evolutions, 1)
	assert.Equal(t, domain.PhaseImplementing, evolutions[0].Status)

	resp, err := c.UpdateEvolutionStatus(ctx, "evo-1", domain.StatusUpdate{Status: domain.PhaseValidating})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(resp))
	assert.Equal(t, http.MethodPut, (*calls)[1].method)

	workflows, err := c.ActiveWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "wf-1", workflows[0]["workflow_id"])

	status, err := c.CoordinatorStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "active", status["status"])

	quality, err := c.QualityMetrics(ctx)
	require.NoError(t, err)
	assert.Empty(t, quality)

	_, err = c.WorkflowAction(ctx, "wf-1", domain.WorkflowAction("pause"), nil)
	assert.Error(t, err)
}

func TestMockBackend_ServesEveryResource(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mock := NewMockBackend("/api/monitoring", "/api", 0)
	mock.now = func() time.Time { return now }
	c := NewClient(mock, "/api/monitoring", "/api")
	ctx := context.Background()

	agents, err := c.Agents(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 4)

	agent, err := c.Agent(ctx, "deployer")
	require.NoError(t, err)
	assert.Equal(t, domain.GradeDegraded, agent.Health)

	_, err = c.Agent(ctx, "ghost")
	assert.True(t, IsNotFound(err))

	approvals, err := c.PendingApprovals(ctx, domain.ApprovalFilter{Type: domain.ApprovalClassification})
	require.NoError(t, err)
	require.Len(t, approvals, 3)
	assert.Equal(t, now.Add(-3*time.Hour), approvals[0].CreatedAt)

	evolutions, err := c.ActiveEvolutions(ctx)
	require.NoError(t, err)
	assert.Len(t, evolutions, 3)

	evo, err := c.Evolution(ctx, "evo-2")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseUnderReview, evo.Status)

	stats, err := c.EvolutionStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalEvolutions)
	assert.Equal(t, int64(25), stats.ByPhase["completed"])

	workflows, err := c.ActiveWorkflows(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 2)

	_, err = c.WorkflowAction(ctx, "wf-1", domain.WorkflowApprove, nil)
	assert.NoError(t, err)

	resp, err := c.Chat(ctx, json.RawMessage(`{"message":"hi"}`))
	require.NoError(t, err)
	assert.Contains(t, string(resp), "acknowledged")
}
