package queue

import (
	"github.com/maheshrc27/fediplan/internal/service"
)

type Queue struct {
	cs service.ComposeService
}

func NewQueue(cs service.ComposeService) *Queue {
	return &Queue{
		cs: cs,
	}
}

const TaskTypeExpireSession = "session:expire"

type ExpireSessionPayload struct {
	SessionID string `json:"session_id"`
}
