package match

import (
	"context"

	"github.com/mcoot/pongduel-go/internal/model"
)

// Recorder persists the outcome of a finished session. The orchestrator
// calls it exactly once per session, after the session has been removed from
// the registry, and does not depend on its result: failures are logged and
// the in-memory teardown stands.
type Recorder interface {
	RecordResult(ctx context.Context, rec *model.MatchRecord) error
}
