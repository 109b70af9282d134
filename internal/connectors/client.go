package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// Client — типизированный клиент бэкенда мониторинга воркшопов.
// Мониторинг агентов живет под отдельным базовым путем, остальные ресурсы под общим.
type Client struct {
	caller         Caller
	monitoringPath string
	apiPath        string
}

func NewClient(caller Caller, monitoringPath, apiPath string) *Client {
	return &Client{caller: caller, monitoringPath: monitoringPath, apiPath: apiPath}
}

// --- Мониторинг агентов ---

func (c *Client) SystemHealth(ctx context.Context) (domain.SystemHealthReport, error) {
	var out domain.SystemHealthReport
	err := c.getJSON(ctx, c.monitoringPath+"/health", &out)
	return out, err
}

func (c *Client) Agents(ctx context.Context) ([]domain.AgentReport, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, c.monitoringPath+"/agents", &raw); err != nil {
		return nil, err
	}
	return domain.DecodeAgentReports(raw), nil
}

func (c *Client) Agent(ctx context.Context, name string) (domain.AgentReport, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.monitoringPath+"/agents/"+url.PathEscape(name), &raw); err != nil {
		return domain.AgentReport{}, err
	}
	return domain.DecodeAgentReports([]json.RawMessage{raw})[0], nil
}

func (c *Client) Summary(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	err := c.getJSON(ctx, c.monitoringPath+"/summary", &out)
	return out, err
}

func (c *Client) Info(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	err := c.getJSON(ctx, c.monitoringPath+"/info", &out)
	return out, err
}

// TriggerHealthCheck просит бэкенд перепроверить агентов. Сами проверки выполняет бэкенд.
func (c *Client) TriggerHealthCheck(ctx context.Context) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPost, c.monitoringPath+"/health-check", nil)
}

// --- Подтверждения ---

type pendingApprovals struct {
	PendingApprovals []json.RawMessage `json:"pending_approvals"`
}

// PendingApprovals: пустой фильтр означает всю очередь.
func (c *Client) PendingApprovals(ctx context.Context, f domain.ApprovalFilter) ([]domain.ApprovalRequest, error) {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	path := c.apiPath + "/approvals/pending"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp pendingApprovals
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return domain.DecodeApprovals(resp.PendingApprovals), nil
}

func (c *Client) SubmitDecision(ctx context.Context, approvalID string, form domain.DecisionForm) (json.RawMessage, error) {
	payload, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("encode decision: %w", err)
	}
	return c.send(ctx, http.MethodPost, c.apiPath+"/pipeline/approval/"+url.PathEscape(approvalID)+"/decision", payload)
}

// --- Эволюции ---

type activeEvolutions struct {
	ActiveEvolutions []json.RawMessage `json:"active_evolutions"`
}

func (c *Client) ActiveEvolutions(ctx context.Context) ([]domain.EvolutionRecord, error) {
	var resp activeEvolutions
	if err := c.getJSON(ctx, c.apiPath+"/evolution/active", &resp); err != nil {
		return nil, err
	}
	return domain.DecodeEvolutions(resp.ActiveEvolutions), nil
}

func (c *Client) Evolution(ctx context.Context, id string) (domain.EvolutionRecord, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.apiPath+"/evolution/"+url.PathEscape(id), &raw); err != nil {
		return domain.EvolutionRecord{}, err
	}
	return domain.DecodeEvolutions([]json.RawMessage{raw})[0], nil
}

func (c *Client) EvolutionStatistics(ctx context.Context) (domain.EvolutionStatistics, error) {
	var out domain.EvolutionStatistics
	err := c.getJSON(ctx, c.apiPath+"/evolution/statistics", &out)
	return out, err
}

func (c *Client) WorkshopHistory(ctx context.Context, workshop string) (json.RawMessage, error) {
	return c.send(ctx, http.MethodGet, c.apiPath+"/evolution/workshops/"+url.PathEscape(workshop)+"/history", nil)
}

func (c *Client) UpdateEvolutionStatus(ctx context.Context, id string, upd domain.StatusUpdate) (json.RawMessage, error) {
	payload, err := json.Marshal(upd)
	if err != nil {
		return nil, fmt.Errorf("encode status update: %w", err)
	}
	return c.send(ctx, http.MethodPut, c.apiPath+"/evolution/"+url.PathEscape(id)+"/status", payload)
}

func (c *Client) AnalyzeImpact(ctx context.Context, request json.RawMessage) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPost, c.apiPath+"/impact-assessment/analyze", request)
}

// --- Координатор надзора ---

// envelope — обертка {success, data, metadata} ответов координатора.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) CoordinatorStatus(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	err := c.getEnvelope(ctx, c.apiPath+"/oversight/coordinator/status", &out)
	return out, err
}

// ActiveWorkflows принимает и голый список, и объект {"workflows": [...]}.
func (c *Client) ActiveWorkflows(ctx context.Context) ([]map[string]interface{}, error) {
	var data json.RawMessage
	if err := c.getEnvelope(ctx, c.apiPath+"/oversight/workflows/active", &data); err != nil {
		return nil, err
	}
	out := []map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err == nil {
		return out, nil
	}
	var wrapped struct {
		Workflows []map[string]interface{} `json:"workflows"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode workflows: %w", err)
	}
	if wrapped.Workflows == nil {
		return out, nil
	}
	return wrapped.Workflows, nil
}

func (c *Client) QualityMetrics(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	err := c.getEnvelope(ctx, c.apiPath+"/oversight/metrics/quality", &out)
	return out, err
}

func (c *Client) Chat(ctx context.Context, message json.RawMessage) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPost, c.apiPath+"/oversight/chat", message)
}

func (c *Client) Coordinate(ctx context.Context, request json.RawMessage) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPost, c.apiPath+"/oversight/coordinate", request)
}

func (c *Client) WorkflowAction(ctx context.Context, workflowID string, action domain.WorkflowAction, payload json.RawMessage) (json.RawMessage, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unsupported workflow action %q", action)
	}
	return c.send(ctx, http.MethodPost, c.apiPath+"/oversight/workflows/"+url.PathEscape(workflowID)+"/"+string(action), payload)
}

// --- helpers ---

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (json.RawMessage, error) {
	data, err := c.caller.Call(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(data), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	data, err := c.caller.Call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) getEnvelope(ctx context.Context, path string, out interface{}) error {
	var env envelope
	if err := c.getJSON(ctx, path, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
