package model

import "time"

// DeadLetterMessage is a resume-analysis job that exhausted its retries and
// was parked for operator inspection.
type DeadLetterMessage struct {
	ID        string    `db:"id"`
	QueueName string    `db:"queue_name"`
	Payload   string    `db:"payload"` // JSON job payload as sent to the queue
	Reason    string    `db:"reason"`
	Status    string    `db:"status"` // unprocessed | redriven
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
