package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskRecyclingSweep = "leads.recycling.sweep"

const TaskRedistribute = "leads.redistribute"

// RecyclingSweepPayload carries the moment the sweep was requested, for
// latency diagnostics on congested queues.
type RecyclingSweepPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

type RedistributePayload struct {
	RequestedAt time.Time `json:"requestedAt"`
	Reason      string    `json:"reason,omitempty"`
}

func NewRecyclingSweepTask(payload RecyclingSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecyclingSweep, data), nil
}

func ParseRecyclingSweepPayload(task *asynq.Task) (RecyclingSweepPayload, error) {
	var payload RecyclingSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecyclingSweepPayload{}, err
	}
	return payload, nil
}

func NewRedistributeTask(payload RedistributePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedistribute, data), nil
}

func ParseRedistributePayload(task *asynq.Task) (RedistributePayload, error) {
	var payload RedistributePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RedistributePayload{}, err
	}
	return payload, nil
}
