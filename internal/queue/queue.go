package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

func EnqueueSessionExpiry(asynqClient *asynq.Client, payload ExpireSessionPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeExpireSession, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	log.Printf("Task scheduled: %+v", payload)
	return nil
}
