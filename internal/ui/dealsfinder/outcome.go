package dealsfinder

import (
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
)

// Messages shown in the error slot.
const (
	TransportFailureMessage = "Failed to find deals. Please try again."
	FallbackErrorMessage    = "Could not find deals"
)

// OutcomeKind selects which result state to show.
type OutcomeKind int

const (
	OutcomeError OutcomeKind = iota
	OutcomeEmpty
	OutcomeResults
)

// Outcome is the interpreted result of one deals request.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Stores  []models.StoreResult
}

// Interpret maps a deals response, or the error that replaced it, to the
// state the page should show.
func Interpret(resp dto.FindDealsResponse, err error) Outcome {
	switch {
	case err != nil:
		return Outcome{Kind: OutcomeError, Message: TransportFailureMessage}
	case !resp.Success || resp.Stores == nil:
		msg := resp.Error
		if msg == "" {
			msg = FallbackErrorMessage
		}
		return Outcome{Kind: OutcomeError, Message: msg}
	case len(resp.Stores) == 0:
		return Outcome{Kind: OutcomeEmpty}
	default:
		return Outcome{Kind: OutcomeResults, Stores: resp.Stores}
	}
}
