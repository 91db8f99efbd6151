// Package interfaces defines service contracts for fidash
package interfaces

import (
	"context"
	"encoding/json"

	"github.com/bobmcallan/fidash/internal/models"
)

// Gateway retrieves raw tool payloads from a Fi data source.
// Any returned error is treated as the failure marker for that tool.
type Gateway interface {
	// Retrieve returns the raw JSON payload of one tool
	Retrieve(ctx context.Context, tool models.ToolName) (json.RawMessage, error)

	// Name identifies the gateway in logs and the source status report
	Name() string
}

// SessionLogin authenticates a Fi session against a phone number.
type SessionLogin interface {
	Login(ctx context.Context, phoneNumber string) error
}
