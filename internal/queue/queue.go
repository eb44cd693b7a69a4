// Package queue names the background tasks and builds their payloads.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeWelcome     = "chat:welcome"
	TypeUploadPurge = "upload:purge"

	QueueDefault = "default"
)

// WelcomePayload asks for the first assistant message of a new user.
type WelcomePayload struct {
	UserID string `json:"user_id"`
}

// UploadPurgePayload names a stored photo to delete.
type UploadPurgePayload struct {
	Key string `json:"key"`
}

// NewWelcomeTask is deduplicated per user by its task id.
func NewWelcomeTask(userID uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(WelcomePayload{UserID: userID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal welcome payload: %w", err)
	}
	return asynq.NewTask(TypeWelcome, b,
		asynq.TaskID("welcome:"+userID.String()),
		asynq.MaxRetry(5),
		asynq.Queue(QueueDefault),
	), nil
}

// NewUploadPurgeTask schedules deletion of key after the retention window.
func NewUploadPurgeTask(key string, after time.Duration) (*asynq.Task, error) {
	b, err := json.Marshal(UploadPurgePayload{Key: key})
	if err != nil {
		return nil, fmt.Errorf("marshal purge payload: %w", err)
	}
	return asynq.NewTask(TypeUploadPurge, b,
		asynq.ProcessIn(after),
		asynq.MaxRetry(10),
		asynq.Queue(QueueDefault),
	), nil
}

// RedisOpt builds the connection options shared by the API client and the worker.
func RedisOpt(addr, password string) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: 0}
}
