package domain

import "time"

type EvolutionType string

const (
	EvolutionResearchUpdate          EvolutionType = "research_update"
	EvolutionTechnologyRefresh       EvolutionType = "technology_refresh"
	EvolutionFeedbackIntegration     EvolutionType = "feedback_integration"
	EvolutionContentExpansion        EvolutionType = "content_expansion"
	EvolutionContentUpdate           EvolutionType = "content_update"
	EvolutionBugFix                  EvolutionType = "bug_fix"
	EvolutionSecurityUpdate          EvolutionType = "security_update"
	EvolutionPerformanceOptimization EvolutionType = "performance_optimization"
)

// Phase — фаза жизненного цикла эволюции воркшопа.
// requested → under_review → approved → implementing → validating → (completed | deployed | failed | rolled_back)
type Phase string

const (
	PhaseRequested    Phase = "requested"
	PhaseUnderReview  Phase = "under_review"
	PhaseApproved     Phase = "approved"
	PhaseImplementing Phase = "implementing"
	PhaseValidating   Phase = "validating"
	PhaseCompleted    Phase = "completed"
	PhaseDeployed     Phase = "deployed"
	PhaseFailed       Phase = "failed"
	PhaseRolledBack   Phase = "rolled_back"
)

// Bucket — группа фаз для отображения очереди.
type Bucket string

const (
	BucketPending   Bucket = "pending"
	BucketActive    Bucket = "active"
	BucketCompleted Bucket = "completed"
	BucketFailed    Bucket = "failed"
)

// Buckets в порядке отображения
var Buckets = []Bucket{BucketPending, BucketActive, BucketCompleted, BucketFailed}

// phaseBuckets — единственный источник правды о разбиении фаз на группы.
var phaseBuckets = map[Phase]Bucket{
	PhaseRequested:    BucketPending,
	PhaseUnderReview:  BucketPending,
	PhaseApproved:     BucketActive,
	PhaseImplementing: BucketActive,
	PhaseValidating:   BucketActive,
	PhaseCompleted:    BucketCompleted,
	PhaseDeployed:     BucketCompleted,
	PhaseFailed:       BucketFailed,
	PhaseRolledBack:   BucketFailed,
}

// Bucket возвращает группу фазы. ok=false для значений вне контракта.
func (p Phase) Bucket() (Bucket, bool) {
	b, ok := phaseBuckets[p]
	return b, ok
}

// Terminal — completed, deployed, failed, rolled_back.
func (p Phase) Terminal() bool {
	b, ok := p.Bucket()
	return ok && (b == BucketCompleted || b == BucketFailed)
}

// EvolutionRecord — отслеживаемое изменение воркшопа.
type EvolutionRecord struct {
	EvolutionID   string        `json:"evolution_id"`
	WorkshopName  string        `json:"workshop_name"`
	EvolutionType EvolutionType `json:"evolution_type"`
	Status        Phase         `json:"status"`

	CurrentVersion string `json:"current_version,omitempty"`
	TargetVersion  string `json:"target_version,omitempty"`
	RequestedBy    string `json:"requested_by,omitempty"`
	Description    string `json:"evolution_description,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	FilesModified     *int `json:"files_modified,omitempty"`
	RollbackAvailable bool `json:"rollback_available"`
}

// EvolutionStatistics — ответ GET /evolution/statistics.
type EvolutionStatistics struct {
	TotalEvolutions        int              `json:"total_evolutions"`
	ActiveEvolutions       int              `json:"active_evolutions"`
	SuccessRate            float64          `json:"success_rate"`
	AverageDurationMinutes float64          `json:"average_duration_minutes"`
	RecentActivity7Days    int              `json:"recent_activity_7_days"`
	ByPhase                map[string]int64 `json:"by_phase"`
	ByType                 map[string]int64 `json:"by_type"`
}

// StatusUpdate — тело PUT /evolution/{id}/status.
type StatusUpdate struct {
	Status  Phase  `json:"status"`
	Actor   string `json:"updated_by,omitempty"`
	Comment string `json:"comment,omitempty"`
}
