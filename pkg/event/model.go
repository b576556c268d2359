package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserRegistered      = "user.registered"
	TypeUserPasswordChanged = "user.password_changed"
	TypeUserActivated       = "user.activated"
	TypeUserDeactivated     = "user.deactivated"
)

// Event is an account lifecycle notification. Type doubles as the routing key.
type Event struct {
	Id         string    `json:"id"`
	Type       string    `json:"type"`
	UserId     string    `json:"userId"`
	Email      string    `json:"email"`
	ActorId    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func New(eventType, userId, email string) *Event {
	return &Event{
		Id:         uuid.New().String(),
		Type:       eventType,
		UserId:     userId,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

func (e *Event) WithActor(actorId string) *Event {
	e.ActorId = actorId
	return e
}
