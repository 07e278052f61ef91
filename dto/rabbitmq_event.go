package dto

import "github.com/customeros/cardstack/internal/enum"

type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id         string          `json:"id"`
	Tenant     string          `json:"tenant"`
	EntityId   string          `json:"entityId"`
	EntityType enum.EntityType `json:"entityType"`
	EventType  string          `json:"eventType"`
	Data       interface{}     `json:"data"`
}

type EventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource"`
	UserId      string `json:"userId"`
	UserEmail   string `json:"userEmail"`
	Timestamp   string `json:"timestamp"`
}

type ContactsImported struct {
	FileName string            `json:"fileName"`
	Schema   enum.ImportSchema `json:"schema"`
	Created  int               `json:"created"`
	Updated  int               `json:"updated"`
	Skipped  int               `json:"skipped"`
}

type OutreachDispatched struct {
	Requested int `json:"requested"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type EmailSent struct {
	ContactID string                `json:"contactId,omitempty"`
	To        string                `json:"to"`
	Channel   enum.TransportChannel `json:"channel"`
	MessageID string                `json:"messageId"`
}
