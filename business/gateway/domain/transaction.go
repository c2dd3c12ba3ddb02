package domain

import "encoding/json"

// TxStatus is the lifecycle state of a submitted transaction.
type TxStatus int

const (
	TxStatusPending TxStatus = iota
	TxStatusConfirmed
	TxStatusFailed
)

// Wire sentinels used by the sidecar's poll endpoint.
const (
	wireStatusConfirmed = 1
	wireStatusFailed    = -1
)

// TxStatusFromWire maps the sidecar's numeric txStatus to a TxStatus.
// Anything other than the confirmed/failed sentinels counts as pending,
// matching the sidecar contract for unknown codes.
func TxStatusFromWire(code int) TxStatus {
	switch code {
	case wireStatusConfirmed:
		return TxStatusConfirmed
	case wireStatusFailed:
		return TxStatusFailed
	default:
		return TxStatusPending
	}
}

// String returns the lowercase status name.
func (s TxStatus) String() string {
	switch s {
	case TxStatusConfirmed:
		return "confirmed"
	case TxStatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// IsTerminal reports whether the status is final.
func (s TxStatus) IsTerminal() bool {
	return s == TxStatusConfirmed || s == TxStatusFailed
}

// SubmissionResponse is the sidecar's reply to a transaction submission.
// Exactly one of Signature or TxHash is typically set, depending on the
// chain family.
type SubmissionResponse struct {
	Signature string          `json:"signature,omitempty"`
	TxHash    string          `json:"txHash,omitempty"`
	Status    *int            `json:"status,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Hash returns whichever transaction identifier the response carries.
func (r SubmissionResponse) Hash() string {
	if r.Signature != "" {
		return r.Signature
	}
	return r.TxHash
}

// InitialStatus returns the status reported at submission time, defaulting
// to pending when absent.
func (r SubmissionResponse) InitialStatus() TxStatus {
	if r.Status == nil {
		return TxStatusPending
	}
	return TxStatusFromWire(*r.Status)
}

// PollResponse is the sidecar's reply to a transaction-status poll.
type PollResponse struct {
	CurrentBlock int64           `json:"currentBlock,omitempty"`
	TxBlock      int64           `json:"txBlock,omitempty"`
	TxStatus     *int            `json:"txStatus,omitempty"`
	TxReceipt    json.RawMessage `json:"txReceipt,omitempty"`
	Fee          float64         `json:"fee,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// Status maps the poll's wire code to a TxStatus. A missing txStatus field
// counts as pending.
func (r PollResponse) Status() TxStatus {
	if r.TxStatus == nil {
		return TxStatusPending
	}
	return TxStatusFromWire(*r.TxStatus)
}

// EventKind identifies a transaction lifecycle event.
type EventKind string

const (
	EventTxHash    EventKind = "tx_hash"
	EventConfirmed EventKind = "confirmed"
	EventFailed    EventKind = "failed"
)

// Event is one transaction lifecycle notification delivered to a callback.
type Event struct {
	Kind    EventKind
	OrderID string
	Payload any
}
