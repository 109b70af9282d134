package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// MockBackend — встроенный имитатор бэкенда мониторинга для демо-режима (backend.mock: true).
// Отвечает фиксированными данными с метками времени относительно текущего момента.
type MockBackend struct {
	monitoringPath string
	apiPath        string
	maxLatency     time.Duration
	now            func() time.Time
}

func NewMockBackend(monitoringPath, apiPath string, maxLatency time.Duration) *MockBackend {
	return &MockBackend{
		monitoringPath: monitoringPath,
		apiPath:        apiPath,
		maxLatency:     maxLatency,
		now:            time.Now,
	}
}

func (m *MockBackend) Call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	// Имитируем задержку сети
	if m.maxLatency > 0 {
		latency := time.Duration(rand.Int64N(int64(m.maxLatency)))
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	path, _, _ = strings.Cut(path, "?")
	var body interface{}
	switch {
	case strings.HasPrefix(path, m.monitoringPath+"/"):
		body = m.monitoring(method, strings.TrimPrefix(path, m.monitoringPath))
	case strings.HasPrefix(path, m.apiPath+"/"):
		body = m.api(method, strings.TrimPrefix(path, m.apiPath), payload)
	}
	if body == nil {
		return nil, &HTTPError{StatusCode: http.StatusNotFound, Method: method, Path: path, Body: "not found"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mock backend: %w", err)
	}
	return data, nil
}

type obj = map[string]interface{}

func (m *MockBackend) ago(d time.Duration) string {
	return m.now().Add(-d).UTC().Format(time.RFC3339)
}

func (m *MockBackend) in(d time.Duration) string {
	return m.now().Add(d).UTC().Format(time.RFC3339)
}

func (m *MockBackend) agents() []obj {
	return []obj{
		{"name": "classifier", "endpoint": "http://classifier:8001", "health": "HEALTHY", "response_time_ms": 120, "last_checked": m.ago(30 * time.Second), "available_tools": []string{"classify", "tag"}},
		{"name": "content-reviewer", "endpoint": "http://reviewer:8002", "health": "HEALTHY", "response_time_ms": 340, "last_checked": m.ago(30 * time.Second)},
		{"name": "deployer", "endpoint": "http://deployer:8003", "health": "DEGRADED", "response_time_ms": 2100, "last_checked": m.ago(45 * time.Second), "error_message": "slow responses"},
		{"name": "researcher", "endpoint": "http://researcher:8004", "health": "UNHEALTHY", "last_checked": m.ago(2 * time.Minute), "error_message": "connection refused"},
	}
}

func (m *MockBackend) monitoring(method, path string) interface{} {
	switch {
	case method == http.MethodGet && path == "/health":
		return obj{"overall_status": "UNHEALTHY", "active_issues": []string{"researcher: connection refused"}, "last_updated": m.ago(0), "total_agents": 4}
	case method == http.MethodGet && path == "/agents":
		return m.agents()
	case method == http.MethodGet && strings.HasPrefix(path, "/agents/"):
		name := strings.TrimPrefix(path, "/agents/")
		for _, a := range m.agents() {
			if a["name"] == name {
				return a
			}
		}
		return nil
	case method == http.MethodGet && path == "/summary":
		return obj{"total_agents": 4, "healthy": 2, "degraded": 1, "unhealthy": 1}
	case method == http.MethodGet && path == "/info":
		return obj{"service": "workshop-monitoring", "version": "mock", "check_interval_seconds": 30}
	case method == http.MethodPost && path == "/health-check":
		return obj{"status": "started"}
	}
	return nil
}

func (m *MockBackend) api(method, path string, payload []byte) interface{} {
	ok := obj{"success": true}
	switch {
	case method == http.MethodGet && path == "/approvals/pending":
		return obj{"pending_approvals": []obj{
			{"approval_id": "apr-1001", "type": "deployment_authorization", "priority": "urgent", "status": "pending", "requester": "deployer", "context": "release 2.4 of k8s-101", "created_at": m.ago(3 * time.Hour), "timeout_at": m.ago(time.Hour), "escalation_at": m.ago(2 * time.Hour)},
			{"approval_id": "apr-1002", "type": "content_review", "priority": "normal", "status": "in_review", "requester": "content-reviewer", "created_at": m.ago(40 * time.Minute), "timeout_at": m.in(4 * time.Hour)},
			{"approval_id": "apr-1003", "type": "classification", "priority": "low", "status": "pending", "requester": "classifier", "created_at": m.ago(20 * time.Second)},
		}}
	case method == http.MethodPost && strings.HasPrefix(path, "/pipeline/approval/"):
		return ok
	case method == http.MethodGet && path == "/evolution/active":
		return obj{"active_evolutions": m.evolutions()}
	case method == http.MethodGet && path == "/evolution/statistics":
		return obj{
			"total_evolutions": 42, "active_evolutions": 3, "success_rate": 88.5,
			"average_duration_minutes": 95, "recent_activity_7_days": 11,
			"by_phase": obj{"completed": 25, "deployed": 8, "failed": 3, "rolled_back": 2, "implementing": 2, "requested": 2},
			"by_type":  obj{"content_update": 18, "bug_fix": 12, "security_update": 7, "technology_refresh": 5},
		}
	case method == http.MethodGet && strings.HasPrefix(path, "/evolution/workshops/"):
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/evolution/workshops/"), "/history")
		return obj{"workshop_name": name, "history": []obj{}}
	case method == http.MethodPut && strings.HasSuffix(path, "/status"):
		return ok
	case method == http.MethodGet && strings.HasPrefix(path, "/evolution/"):
		id := strings.TrimPrefix(path, "/evolution/")
		for _, e := range m.evolutions() {
			if e["evolution_id"] == id {
				return e
			}
		}
		return nil
	case method == http.MethodPost && path == "/impact-assessment/analyze":
		return obj{"risk_level": "medium", "affected_workshops": 2}
	case method == http.MethodGet && path == "/oversight/coordinator/status":
		return obj{"success": true, "data": obj{"status": "active", "active_workflows": 2}}
	case method == http.MethodGet && path == "/oversight/workflows/active":
		return obj{"success": true, "data": obj{"workflows": []obj{
			{"workflow_id": "wf-1", "name": "k8s-101 refresh", "status": "awaiting_approval"},
			{"workflow_id": "wf-2", "name": "go-basics bug sweep", "status": "running"},
		}}}
	case method == http.MethodGet && path == "/oversight/metrics/quality":
		return obj{"success": true, "data": obj{"overall_score": 0.91}}
	case method == http.MethodPost && path == "/oversight/chat":
		return obj{"success": true, "data": obj{"reply": "acknowledged", "echo": json.RawMessage(orEmpty(payload))}}
	case method == http.MethodPost && (path == "/oversight/coordinate" || strings.HasPrefix(path, "/oversight/workflows/")):
		return ok
	}
	return nil
}

func (m *MockBackend) evolutions() []obj {
	return []obj{
		{"evolution_id": "evo-1", "workshop_name": "k8s-101", "evolution_type": "content_update", "status": "implementing", "current_version": "2.3.0", "target_version": "2.4.0", "created_at": m.ago(5 * time.Hour), "requested_by": "content-reviewer", "files_modified": 12, "rollback_available": true},
		{"evolution_id": "evo-2", "workshop_name": "go-basics", "evolution_type": "bug_fix", "status": "under_review", "created_at": m.ago(50 * time.Minute), "requested_by": "classifier"},
		{"evolution_id": "evo-3", "workshop_name": "rust-intro", "evolution_type": "security_update", "status": "validating", "created_at": m.ago(26 * time.Hour), "requested_by": "researcher", "rollback_available": true},
	}
}

func orEmpty(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
