package amqp

import (
	"encoding/json"
	"time"

	"bujit/internal/ledger"
)

// LedgerEntry is one transaction recorded by a committed operation, with the
// account state right after it.
type LedgerEntry struct {
	AccountID     int64     `json:"account_id"`
	AccountName   string    `json:"account_name"`
	TransactionID int64     `json:"transaction_id"`
	Kind          string    `json:"kind"`
	Amount        string    `json:"amount"`
	Label         string    `json:"label,omitempty"`
	Counterparty  string    `json:"counterparty,omitempty"`
	Balance       string    `json:"balance"`
	Date          time.Time `json:"date"`
}

// LedgerEventMessage announces a committed ledger operation.
type LedgerEventMessage struct {
	Op        string        `json:"op"`
	Timestamp time.Time     `json:"timestamp"`
	Entries   []LedgerEntry `json:"entries"`
}

// NewLedgerEventMessage maps a successful completion to a message. It
// returns nil for failed operations and for those that recorded nothing.
func NewLedgerEventMessage(c ledger.Completion) *LedgerEventMessage {
	if !c.OK() || len(c.Entries) == 0 {
		return nil
	}
	msg := &LedgerEventMessage{
		Op:        string(c.Op),
		Timestamp: c.At.UTC(),
		Entries:   make([]LedgerEntry, 0, len(c.Entries)),
	}
	for _, e := range c.Entries {
		if e.Account == nil || e.Transaction == nil {
			continue
		}
		tx := e.Transaction
		msg.Entries = append(msg.Entries, LedgerEntry{
			AccountID:     e.Account.ID().Int64(),
			AccountName:   e.Account.Name,
			TransactionID: tx.ID().Int64(),
			Kind:          string(tx.Kind()),
			Amount:        tx.Amount().String(),
			Label:         tx.Label(),
			Counterparty:  tx.Counterparty(),
			Balance:       e.Account.Balance().String(),
			Date:          tx.Timestamp(),
		})
	}
	return msg
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
