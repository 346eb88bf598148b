package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func (j *Queue) HandleExpireSessionTask(ctx context.Context, task *asynq.Task) error {
	var payload ExpireSessionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	log.Printf("Expiring compose session: %s", payload.SessionID)
	j.cs.ExpireSession(payload.SessionID)

	return nil
}
