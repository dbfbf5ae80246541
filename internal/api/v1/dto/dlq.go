package dto

import "time"

// DLQMessageResponseDTO is one parked analysis job.
type DLQMessageResponseDTO struct {
	ID        string    `json:"id"`
	QueueName string    `json:"queue_name"`
	Payload   string    `json:"payload"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DLQRedriveDTO identifies the parked job to re-enqueue.
type DLQRedriveDTO struct {
	ID string `json:"id" validate:"required,uuid"`
}
