package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
)

func TestBuildAuditInsert(t *testing.T) {
	ts := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	events := []audit.OperatorAction{
		{ID: "id-1", Action: audit.ActionApprovalDecision, Target: "apr-1", Payload: map[string]interface{}{"decision": "approved"}, Status: audit.StatusSuccess, Timestamp: ts},
		{ID: "id-2", Action: audit.ActionHealthCheck, Status: audit.StatusFailed, Error: "status 502", Timestamp: ts},
	}

	query, vals := buildAuditInsert(events)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO operator_audit (id, trace_id, actor, action, target, payload, status, error, duration_ms, timestamp) VALUES "))
	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8, $9, $10), ($11, $12,")
	assert.True(t, strings.HasSuffix(query, "$20) ON CONFLICT (id) DO NOTHING"))

	require.Len(t, vals, 20)
	assert.Equal(t, "id-1", vals[0])
	assert.JSONEq(t, `{"decision":"approved"}`, string(vals[5].([]byte)))
	assert.Nil(t, vals[15])
	assert.Equal(t, "status 502", vals[17])
	assert.Equal(t, ts, vals[19])
}
