package service

import (
	"sync"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// DraftStore хранит формы решений, которые не удалось отправить, чтобы оператор
// мог повторить отправку без повторного ввода. Только в памяти процесса.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]domain.DecisionForm
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]domain.DecisionForm)}
}

func (s *DraftStore) Save(approvalID string, form domain.DecisionForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[approvalID] = form
}

func (s *DraftStore) Get(approvalID string) (domain.DecisionForm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.drafts[approvalID]
	return form, ok
}

func (s *DraftStore) Clear(approvalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, approvalID)
}
