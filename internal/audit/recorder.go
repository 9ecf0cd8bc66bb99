package audit

import (
	"encoding/json"
	"log/slog"

	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"gorm.io/datatypes"
)

// Event describes one audited action. Actor fields are snapshotted into
// the ledger entry; they are not re-resolved later.
type Event struct {
	Actor      models.User
	Action     string
	TargetType models.TargetType
	TargetID   *uint64
	Details    map[string]any
}

// Recorder appends entries to the activity ledger.
type Recorder struct {
	activities repository.ActivityRepository
}

// NewRecorder creates a Recorder backed by the given repository.
func NewRecorder(activities repository.ActivityRepository) *Recorder {
	return &Recorder{activities: activities}
}

// RecordBestEffort appends one ledger entry. A failed append is logged
// and swallowed: the triggering operation has already completed and must
// not be failed or rolled back. A write that succeeds while the append
// fails leaves a gap in the ledger; that window is accepted.
func (r *Recorder) RecordBestEffort(e Event) {
	entry := models.ActivityLog{
		ActorID:       e.Actor.ID,
		ActorUsername: e.Actor.Username,
		ActorRole:     e.Actor.Role,
		Action:        e.Action,
		TargetType:    e.TargetType,
		TargetID:      e.TargetID,
	}

	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			slog.Error("failed to encode activity details",
				"error", err, "action", e.Action, "actor_id", e.Actor.ID)
		} else {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := r.activities.Create(&entry); err != nil {
		slog.Error("failed to record activity",
			"error", err, "action", e.Action, "actor_id", e.Actor.ID,
			"target_type", e.TargetType)
	}
}
