package port

import "context"

// NotificationSink receives user-facing outcome messages. Calls are
// fire-and-forget: implementations must not block the workflow and no
// acknowledgment is expected.
type NotificationSink interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}
