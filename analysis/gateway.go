package analysis

import (
	"context"

	"bugscope/models"
)

// Gateway is the transport the orchestrator sends analysis requests through.
// services.LLMService satisfies it; tests substitute fakes. Whether the
// transport is live or simulated is configuration on the client, invisible
// here.
type Gateway interface {
	Send(ctx context.Context, reqType models.AnalysisRequestType, content string) (string, error)
}

// BugStore is the slice of the external bug store the orchestrator needs:
// the single description mutation an accepted result performs.
// services.BugService satisfies it.
type BugStore interface {
	UpdateDescription(ctx context.Context, bugID, description string) (*models.Bug, error)
}
