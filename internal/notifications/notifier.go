package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/quadmarket/quadmarket-backend/pkg/logger"
)

// Notifier delivers short messages to users out of band. Delivery codes are
// handed to this interface; swapping in an email or push implementation is a
// wiring change in cmd/.
type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, subject, body string) error
}

type logNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier returns a Notifier that writes deliveries to the structured
// log. Message bodies are not logged; only subject and recipient.
func NewLogNotifier(logg *logger.Logger) Notifier {
	return &logNotifier{logg: logg}
}

func (n *logNotifier) Send(ctx context.Context, userID uuid.UUID, subject, _ string) error {
	if n.logg == nil {
		return nil
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"subject": subject,
	})
	n.logg.Info(ctx, "out-of-band notification dispatched")
	return nil
}
