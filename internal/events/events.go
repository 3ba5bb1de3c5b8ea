// Package events defines the domain events published by the application
// and a small in-process hub that fans them out to subscribers.
package events

import "time"

// EventType identifies a kind of domain event
type EventType string

const (
	// PricesRefreshed is published after a price refresh run completes
	PricesRefreshed EventType = "prices_refreshed"
	// TransactionRecorded is published after a transaction is stored
	TransactionRecorded EventType = "transaction_recorded"
	// DepositAdded is published after a deposit is stored
	DepositAdded EventType = "deposit_added"
	// PlanGenerated is published after a rebalance plan is computed
	PlanGenerated EventType = "plan_generated"
	// BackupCompleted is published after a database backup upload finishes
	BackupCompleted EventType = "backup_completed"
)

// Event is the envelope delivered to subscribers
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PricesRefreshedData contains data for PricesRefreshed events
type PricesRefreshedData struct {
	UpdatedCount int `json:"updated_count"`
	FailedCount  int `json:"failed_count"`
}

// EventType returns the event type for PricesRefreshedData
func (d *PricesRefreshedData) EventType() EventType {
	return PricesRefreshed
}

// TransactionRecordedData contains data for TransactionRecorded events
type TransactionRecordedData struct {
	Symbol   string  `json:"symbol"`
	Type     string  `json:"type"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// EventType returns the event type for TransactionRecordedData
func (d *TransactionRecordedData) EventType() EventType {
	return TransactionRecorded
}

// DepositAddedData contains data for DepositAdded events
type DepositAddedData struct {
	Amount    float64 `json:"amount"`
	Datestamp string  `json:"datestamp"`
}

// EventType returns the event type for DepositAddedData
func (d *DepositAddedData) EventType() EventType {
	return DepositAdded
}

// PlanGeneratedData contains data for PlanGenerated events
type PlanGeneratedData struct {
	PlanID        string  `json:"plan_id"`
	Strategy      string  `json:"strategy"`
	Count         int     `json:"count"`
	TotalInvested float64 `json:"total_invested"`
}

// EventType returns the event type for PlanGeneratedData
func (d *PlanGeneratedData) EventType() EventType {
	return PlanGenerated
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}
