package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

const (
	RoutingKeyStockCritical = "inventory.stock.critical"
	eventVersion            = "1"
)

type StockCriticalEvent struct {
	EventID      string            `json:"event_id"`
	EventType    string            `json:"event_type"`
	EventVersion string            `json:"event_version"`
	Timestamp    string            `json:"timestamp"`
	Payload      domain.StockAlert `json:"payload"`
}

func NewStockCriticalEvent(alert domain.StockAlert) StockCriticalEvent {
	return StockCriticalEvent{
		EventID:      uuid.NewString(),
		EventType:    RoutingKeyStockCritical,
		EventVersion: eventVersion,
		Timestamp:    alert.RaisedAt.UTC().Format(time.RFC3339),
		Payload:      alert,
	}
}

func encode(event StockCriticalEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}
