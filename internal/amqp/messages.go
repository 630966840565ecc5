package amqp

import (
	"encoding/json"
	"time"
)

// SyncKind says what happened to the listed transactions.
type SyncKind string

const (
	SyncUpsert SyncKind = "upsert"
	SyncDelete SyncKind = "delete"
	SyncImport SyncKind = "import"
)

// LedgerSyncMessage carries only transaction ids; the worker fetches row
// state from the mirror itself.
type LedgerSyncMessage struct {
	Kind      SyncKind  `json:"kind"`
	IDs       []string  `json:"ids"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(kind SyncKind, ids []string) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		Kind:      kind,
		IDs:       ids,
		Timestamp: time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
