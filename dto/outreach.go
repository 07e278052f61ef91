package dto

import (
	"github.com/customeros/cardstack/internal/enum"
)

type OutboundMessage struct {
	To      string
	Subject string
	Body    string
}

type SendReceipt struct {
	MessageID string                `json:"id"`
	Channel   enum.TransportChannel `json:"channel"`
	Message   string                `json:"message"`
	HistoryID string                `json:"historyId,omitempty"`
}

type SendRequest struct {
	ContactID    string `json:"contactId"`
	To           string `json:"to" binding:"required,email"`
	Subject      string `json:"subject"`
	Body         string `json:"body" binding:"required"`
	CustomerName string `json:"customerName"`
	CompanyName  string `json:"companyName"`
}

type CustomerInfo struct {
	Company string `json:"company"`
	Title   string `json:"title"`
	Name    string `json:"name"`
}

type RewriteRequest struct {
	Instruction  string       `json:"instruction"`
	CurrentBody  string       `json:"currentBody"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
}

type DispatchRequest struct {
	ContactIDs []string `json:"contactIds"`
}

type RecordOutcome struct {
	ContactID string             `json:"contactId"`
	State     enum.DispatchState `json:"state"`
	HistoryID string             `json:"historyId,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type DispatchResult struct {
	SuccessCount int             `json:"successCount"`
	FailedCount  int             `json:"failedCount"`
	SkippedCount int             `json:"skippedCount"`
	Message      string          `json:"message"`
	Outcomes     []RecordOutcome `json:"outcomes"`
}

type QuotaSummary struct {
	Sent      int64 `json:"sent"`
	Limit     int   `json:"limit"`
	Remaining int64 `json:"remaining"`
}

type HostedMailMetrics struct {
	Total  int                `json:"total"`
	Counts map[string]int     `json:"counts"`
	Rates  map[string]float64 `json:"rates"`
}
