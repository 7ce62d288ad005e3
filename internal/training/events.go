package training

import "time"

// Event is one progress notification emitted during a training run.
// Subscribers receive them in order for a given country and kind.
type Event struct {
	Time    time.Time `json:"time"`
	Country string    `json:"country"`
	Kind    string    `json:"kind"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

// Event stages, in the order a run emits them.
const (
	StageStarted   = "started"
	StageLoading   = "loading"
	StageTraining  = "training"
	StageSelected  = "selected"
	StageSaved     = "saved"
	StageFailed    = "failed"
	StageCompleted = "completed"
)

// Publisher receives training progress events. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}
