package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Permission mirrors the platform notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier is the local-notification surface of the platform. Implementations
// wrap whatever the host environment provides; the reminder service only
// depends on this contract.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, title, body, tag string) error
}

// LogNotifier raises notifications through the structured log. Used by the
// headless reminder client, where there is no native notification center.
type LogNotifier struct {
	logger *zap.SugaredLogger
	allow  bool

	mu         sync.Mutex
	permission Permission
}

func NewLogNotifier(logger *zap.SugaredLogger, allow bool) *LogNotifier {
	return &LogNotifier{
		logger:     logger,
		allow:      allow,
		permission: PermissionDefault,
	}
}

func (n *LogNotifier) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

// RequestPermission resolves the pending permission state. The decision is
// sticky, matching platform behavior where the user is only prompted once.
func (n *LogNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.permission == PermissionDefault {
		if n.allow {
			n.permission = PermissionGranted
		} else {
			n.permission = PermissionDenied
		}
	}
	return n.permission, nil
}

func (n *LogNotifier) Notify(ctx context.Context, title, body, tag string) error {
	n.logger.Infow("local notification",
		"title", title,
		"body", body,
		"tag", tag,
	)
	return nil
}
