package domain

import (
	"encoding/json"
	"time"
)

// Записи бэкенда разбираются поштучно: одна битая запись не должна ронять весь список.
// Сначала пробуем строгий разбор, при ошибке берем то, что удалось прочитать, остальное по умолчанию.

func DecodeAgentReports(raw []json.RawMessage) []AgentReport {
	return decodeEach(raw, func(f fields) AgentReport {
		return AgentReport{
			Name:           f.str("name"),
			Endpoint:       f.str("endpoint"),
			Health:         HealthGrade(f.str("health")),
			ResponseTimeMs: f.int64Ptr("response_time_ms"),
			LastChecked:    f.time("last_checked"),
			ErrorMessage:   f.str("error_message"),
			AvailableTools: f.strings("available_tools"),
			Metadata:       f.object("metadata"),
		}
	})
}

func DecodeApprovals(raw []json.RawMessage) []ApprovalRequest {
	return decodeEach(raw, func(f fields) ApprovalRequest {
		return ApprovalRequest{
			ApprovalID:       f.str("approval_id"),
			Type:             ApprovalType(f.str("type")),
			Name:             f.str("name"),
			Description:      f.str("description"),
			Priority:         ApprovalPriority(f.str("priority")),
			Status:           ApprovalStatus(f.str("status")),
			Requester:        f.str("requester"),
			Context:          f.str("context"),
			AssignedReviewer: f.str("assigned_reviewer"),
			CreatedAt:        f.time("created_at"),
			TimeoutAt:        f.timePtr("timeout_at"),
			EscalationAt:     f.timePtr("escalation_at"),
		}
	})
}

func DecodeEvolutions(raw []json.RawMessage) []EvolutionRecord {
	return decodeEach(raw, func(f fields) EvolutionRecord {
		var files *int
		if v := f.int64Ptr("files_modified"); v != nil {
			n := int(*v)
			files = &n
		}
		return EvolutionRecord{
			EvolutionID:       f.str("evolution_id"),
			WorkshopName:      f.str("workshop_name"),
			EvolutionType:     EvolutionType(f.str("evolution_type")),
			Status:            Phase(f.str("status")),
			CurrentVersion:    f.str("current_version"),
			TargetVersion:     f.str("target_version"),
			RequestedBy:       f.str("requested_by"),
			Description:       f.str("evolution_description"),
			CreatedAt:         f.time("created_at"),
			CompletedAt:       f.timePtr("completed_at"),
			FilesModified:     files,
			RollbackAvailable: f.boolean("rollback_available"),
		}
	})
}

func decodeEach[T any](raw []json.RawMessage, lenient func(fields) T) []T {
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
			continue
		}
		var f fields
		if err := json.Unmarshal(item, &f); err != nil {
			// Даже не объект: оставляем пустую запись, чтобы она попала в общий счетчик
			f = fields{}
		}
		out = append(out, lenient(f))
	}
	return out
}

type fields map[string]interface{}

func (f fields) str(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

func (f fields) time(key string) time.Time {
	switch v := f[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	case float64:
		// Jackson без ISO-настройки отдает Instant как секунды с дробной частью
		sec := int64(v)
		return time.Unix(sec, int64((v-float64(sec))*1e9)).UTC()
	}
	return time.Time{}
}

func (f fields) timePtr(key string) *time.Time {
	t := f.time(key)
	if t.IsZero() {
		return nil
	}
	return &t
}

func (f fields) int64Ptr(key string) *int64 {
	if v, ok := f[key].(float64); ok {
		n := int64(v)
		return &n
	}
	return nil
}

func (f fields) boolean(key string) bool {
	b, _ := f[key].(bool)
	return b
}

func (f fields) strings(key string) []string {
	items, ok := f[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f fields) object(key string) map[string]interface{} {
	m, _ := f[key].(map[string]interface{})
	return m
}
