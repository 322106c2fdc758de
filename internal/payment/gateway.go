// Package payment defines the boundary to the external payment gateway
// SDK. The rest of the system treats a payment strictly as an opaque
// asynchronous call with three possible terminal outcomes; card
// handling and gateway protocol details live behind the SDK.
package payment

// OutcomeStatus is the terminal result of a gateway interaction.
type OutcomeStatus string

const (
	OutcomeApproved  OutcomeStatus = "approved"
	OutcomeDeclined  OutcomeStatus = "declined"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Outcome is what the gateway reports back. Reference is set only on
// approval; Reason only on decline.
type Outcome struct {
	Status    OutcomeStatus `json:"status"`
	Reference string        `json:"reference,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

// Options carries everything the gateway needs to take a payment.
type Options struct {
	SessionToken string
	CustomerID   string
	AmountMinor  int64
	Currency     string
	Method       string
}

// Gateway is the SDK boundary. Open blocks until the customer finishes
// or abandons the gateway's payment flow. A non-nil error means the
// interaction itself failed (network, SDK); it is distinct from a
// declined or cancelled outcome.
type Gateway interface {
	Open(opts Options) (Outcome, error)
}
