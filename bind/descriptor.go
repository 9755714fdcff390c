package bind

import (
	"context"

	"github.com/birkland/blobbind"
	"github.com/sirupsen/logrus"
)

// describe is the post-resolve hook of the built-in rules.  It obtains the
// account name from the client, but does not touch the container.
func describe(ctx context.Context, b *Binding) (blobbind.Descriptor, error) {
	client, err := b.engine.resolver.Client(ctx, b.Ref)
	if err != nil {
		return blobbind.Descriptor{}, err
	}

	return blobbind.Descriptor{
		Account:   client.AccountName(),
		Container: b.Path.Container,
		Item:      b.Path.Item,
		Access:    b.Access,
	}, nil
}

// LogSink is a DiagnosticsSink that logs each descriptor
type LogSink struct {
	Log logrus.FieldLogger
}

// Record logs a descriptor at info level
func (s LogSink) Record(d blobbind.Descriptor) {
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	log.WithFields(logrus.Fields{
		"account":   d.Account,
		"container": d.Container,
		"item":      d.Item,
		"access":    d.Access.String(),
	}).Info("binding")
}
