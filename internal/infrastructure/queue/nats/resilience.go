package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/deck-pipeline/internal/infrastructure/resilience"
)

// Connection-level failures clear up once the client reconnects.
var transientNATSErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
}

func isTransientNATSError(err error) bool {
	for _, target := range transientNATSErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classifyNATSError(err error) resilience.ErrorClassification {
	return resilience.Classify(err, isTransientNATSError)
}

func wrapTemporaryIfNeeded(err error) error {
	return resilience.Temporary("nats publish", err, classifyNATSError)
}
