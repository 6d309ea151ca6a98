package events

import (
	"context"
	"errors"

	pkgEvents "email-onboarding-be/pkg/events"
)

// MultiSink publishes every event to each sink in order. A failing sink
// does not stop the others; their errors are joined.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, event pkgEvents.Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
