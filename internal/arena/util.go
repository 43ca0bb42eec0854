package arena

import "context"

// roomRecordCtx provides the background context used when handing a match
// summary to the stats sink from AdvanceLifecycle, which runs inside Tick
// with the room lock held. Rooms never derive request-scoped contexts; a
// match end is not tied to any single connection's lifetime.
func roomRecordCtx() context.Context {
	return context.Background()
}
