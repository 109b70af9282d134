// Package lifecycle раскладывает записи эволюций по группам жизненного цикла
// и считает производные показатели для очереди и метрик.
package lifecycle

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// View — фильтр очереди эволюций
type View string

const (
	ViewAll       View = "all"
	ViewPending   View = "pending"
	ViewActive    View = "active"
	ViewCompleted View = "completed"
	ViewFailed    View = "failed"
)

var ErrUnknownView = errors.New("unknown evolution view")

// ParseView: пустая строка означает "all".
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewPending, ViewActive, ViewCompleted, ViewFailed:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Контрольные точки прогресса. Это константы-заглушки: бэкенд не присылает реальный прогресс.
const (
	progressImplementing = 60
	progressValidating   = 85
)

// Progress возвращает оценку прогресса. nil для фаз без контрольной точки.
func Progress(p domain.Phase) *int {
	var v int
	switch p {
	case domain.PhaseImplementing:
		v = progressImplementing
	case domain.PhaseValidating:
		v = progressValidating
	default:
		return nil
	}
	return &v
}

// Count — строка сгруппированной статистики.
type Count struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Board — результат раскладки одного снимка эволюций.
type Board struct {
	Total int `json:"total"`

	Pending   []domain.EvolutionRecord `json:"pending"`
	Active    []domain.EvolutionRecord `json:"active"`
	Completed []domain.EvolutionRecord `json:"completed"`
	Failed    []domain.EvolutionRecord `json:"failed"`

	// Unclassified — статусы вне контракта (например rejected, cancelled).
	// В группы не попадают, но входят в Total и в вид "all".
	Unclassified []domain.EvolutionRecord `json:"unclassified"`

	ByPhase []Count `json:"by_phase"`
	ByType  []Count `json:"by_type"`

	all []domain.EvolutionRecord
}

// Track строит Board. Порядок записей внутри групп сохраняется как у бэкенда.
func Track(records []domain.EvolutionRecord) Board {
	b := Board{
		Total:        len(records),
		Pending:      []domain.EvolutionRecord{},
		Active:       []domain.EvolutionRecord{},
		Completed:    []domain.EvolutionRecord{},
		Failed:       []domain.EvolutionRecord{},
		Unclassified: []domain.EvolutionRecord{},
		all:          records,
	}
	if b.all == nil {
		b.all = []domain.EvolutionRecord{}
	}

	phases := make(map[string]int)
	types := make(map[string]int)
	for _, r := range records {
		phases[string(r.Status)]++
		types[string(r.EvolutionType)]++

		bucket, ok := r.Status.Bucket()
		if !ok {
			b.Unclassified = append(b.Unclassified, r)
			continue
		}
		switch bucket {
		case domain.BucketPending:
			b.Pending = append(b.Pending, r)
		case domain.BucketActive:
			b.Active = append(b.Active, r)
		case domain.BucketCompleted:
			b.Completed = append(b.Completed, r)
		case domain.BucketFailed:
			b.Failed = append(b.Failed, r)
		}
	}

	b.ByPhase = counts(phases, b.Total, StatusLabel)
	b.ByType = counts(types, b.Total, Humanize)
	return b
}

// View отдает записи выбранного вида. Неизвестный вид трактуется как "all".
func (b Board) View(v View) []domain.EvolutionRecord {
	switch v {
	case ViewPending:
		return b.Pending
	case ViewActive:
		return b.Active
	case ViewCompleted:
		return b.Completed
	case ViewFailed:
		return b.Failed
	}
	return b.all
}

// BucketCounts — размеры групп, включая unclassified.
func (b Board) BucketCounts() map[string]int {
	return map[string]int{
		string(domain.BucketPending):   len(b.Pending),
		string(domain.BucketActive):    len(b.Active),
		string(domain.BucketCompleted): len(b.Completed),
		string(domain.BucketFailed):    len(b.Failed),
		"unclassified":                 len(b.Unclassified),
	}
}

// Percentage — доля с одним знаком после запятой, 0 при пустом итоге.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func counts(m map[string]int, total int, label func(string) string) []Count {
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{Key: k, Label: label(k), Count: n, Percentage: Percentage(n, total)})
	}
	// по убыванию, при равенстве по ключу, чтобы ответ был стабильным
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
