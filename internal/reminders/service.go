package reminders

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
	"github.com/azro1/flare-care-sub001/internal/notify"
)

const evaluationInterval = 30 * time.Second

// Service is the foreground reminder loop: it re-evaluates the medication
// schedule on a fixed cadence and raises one local notification per tick that
// found due medications, plus a banner event for in-app consumers.
//
// One instance is constructed per signed-in session and owns exactly one
// timer. Start while already running performs a full Stop first, so there is
// never more than one active timer per instance. The fired-today map is a
// separate field deliberately not reset by Start: restarting the cadence must
// not re-fire medications that already fired today. It lives only in memory,
// so a process restart within the same minute window can fire a duplicate;
// that is accepted behavior.
type Service struct {
	notifier notify.Notifier
	bus      *BannerBus
	logger   *zap.SugaredLogger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	meds    []medmodels.Medication
	fired   map[string]string // medication ID -> DateKey of last firing
	stop    chan struct{}
	running bool
}

func NewService(notifier notify.Notifier, bus *BannerBus, logger *zap.SugaredLogger) *Service {
	return &Service{
		notifier: notifier,
		bus:      bus,
		logger:   logger,
		interval: evaluationInterval,
		now:      time.Now,
		fired:    make(map[string]string),
	}
}

// Start begins the evaluation loop with the given schedule. An already
// running service is stopped first, which cancels its pending timer. The
// first evaluation runs immediately rather than waiting for the first tick.
func (s *Service) Start(meds []medmodels.Medication) {
	s.mu.Lock()
	s.stopLocked()
	s.meds = append([]medmodels.Medication(nil), meds...)
	s.running = true
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	s.evaluate()

	go s.loop(stop)
}

// Stop cancels the pending timer. Safe to call when already stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if !s.running {
		return
	}
	close(s.stop)
	s.stop = nil
	s.running = false
}

// UpdateMedications replaces the schedule without touching the timer or the
// fired-today suppression. Callers that want a fresh cadence use Start.
func (s *Service) UpdateMedications(meds []medmodels.Medication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meds = append([]medmodels.Medication(nil), meds...)
}

func (s *Service) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.evaluate()
		}
	}
}

// evaluate runs one tick. Failures here are confined to this tick; the timer
// is never torn down by a failing evaluation.
func (s *Service) evaluate() {
	now := s.now()

	s.mu.Lock()
	due := DueNow(now, s.meds, s.fired)
	for _, med := range due {
		s.fired[med.ID] = DateKey(now)
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	names := make([]string, 0, len(due))
	for _, med := range due {
		names = append(names, med.Name)
	}
	joined := strings.Join(names, ", ")

	ctx := context.Background()
	perm := s.notifier.Permission()
	if perm == notify.PermissionDefault {
		var err error
		perm, err = s.notifier.RequestPermission(ctx)
		if err != nil {
			s.logger.Warnw("notification permission request failed", "error", err)
		}
	}
	if perm == notify.PermissionGranted {
		if err := s.notifier.Notify(ctx, ReminderTitle, ReminderBody(names), ReminderTag); err != nil {
			s.logger.Warnw("local notification failed", "error", err)
		}
	} else {
		s.logger.Infow("notification permission not granted, skipping local notification",
			"medications", joined)
	}

	if s.bus != nil {
		s.bus.Publish(BannerEvent{MedicationNames: joined})
	}
}
