// Package service implements the lifecycle controller (spec.md §4.5):
// Created -> Started -> Stopped, binding once to an application attempt,
// wiring the intake/queue/poster pipeline together, and coordinating an
// orderly shutdown within a configured wait budget.
package service

import (
	"context"
	"fmt"
	"os/user"
	"sync/atomic"
	"time"

	"github.com/cuemby/atsbridge/pkg/bus"
	"github.com/cuemby/atsbridge/pkg/clock"
	"github.com/cuemby/atsbridge/pkg/config"
	"github.com/cuemby/atsbridge/pkg/domain"
	"github.com/cuemby/atsbridge/pkg/extension"
	"github.com/cuemby/atsbridge/pkg/intake"
	"github.com/cuemby/atsbridge/pkg/log"
	"github.com/cuemby/atsbridge/pkg/metrics"
	"github.com/cuemby/atsbridge/pkg/poster"
	"github.com/cuemby/atsbridge/pkg/queue"
	"github.com/cuemby/atsbridge/pkg/sparkevent"
	"github.com/cuemby/atsbridge/pkg/timeline"
	"github.com/cuemby/atsbridge/pkg/tlclient"
	"github.com/cuemby/atsbridge/pkg/tracker"
)

// State is the service's lifecycle state (spec.md §4.5).
type State int32

const (
	Created State = iota
	Started
	Stopped
)

// Binding identifies the single application attempt a service instance is
// bound to (spec.md §4.5 "bound once with {sparkContext, appId,
// attemptId}").
type Binding struct {
	AppID     string
	AttemptID string
}

// Service is the process-wide lifecycle controller. One instance exists
// per application attempt.
type Service struct {
	cfg     config.Config
	clock   clock.Clock
	broker  *bus.Broker
	binding Binding

	state atomic.Int32

	queue     *queue.Queue
	intake    *intake.Intake
	client    *tlclient.Client
	worker    *poster.Worker
	container *extension.Container
	sub       bus.Subscriber

	workerCtx    context.Context
	workerCancel context.CancelFunc
}

// New returns a Service in the Created state.
func New(cfg config.Config, clk clock.Clock, broker *bus.Broker, services []string) *Service {
	return &Service{
		cfg:       cfg,
		clock:     clk,
		broker:    broker,
		container: extension.New(services),
	}
}

// Start transitions Created -> Started (spec.md §4.5 "start(binding)").
// Calling it from any other state is rejected.
func (s *Service) Start(ctx context.Context, b Binding) error {
	if !s.state.CompareAndSwap(int32(Created), int32(Started)) {
		return fmt.Errorf("service: start: not in Created state")
	}
	s.binding = b

	s.queue = queue.New()
	metrics.RegisterComponent("posting-queue", true, "")

	s.client = tlclient.New(s.cfg.Timeline.ServerAddr, 30*time.Second)
	metrics.RegisterComponent("timeline-client", true, "")

	domainID := domain.Create(ctx, s.client, domain.ACLConfig{
		Enabled:      s.cfg.ACLs.Enabled,
		PredefinedID: s.cfg.Timeline.Domain,
		CurrentUser:  currentUser(),
		Admin:        s.cfg.ACLs.Admin,
		View:         s.cfg.ACLs.View,
		Modify:       s.cfg.ACLs.Modify,
	}, b.AppID)

	s.intake = intake.New(intake.Config{
		BatchSize:     s.cfg.Timeline.BatchSize,
		PostQueueCap:  s.cfg.PostQueueCap(),
		SparkVersion:  s.cfg.Timeline.SparkVersion,
		V15Enabled:    s.cfg.Timeline.V15Enabled,
		GroupInstance: s.cfg.Timeline.GroupInstanceID,
		DomainID:      domainID,
	}, s.queue, s.clock)

	s.workerCtx, s.workerCancel = context.WithCancel(context.Background())
	s.worker = poster.New(poster.Config{
		RetryInterval: s.cfg.Timeline.PostRetryInterval,
		RetryMax:      s.cfg.Timeline.PostRetryMaxInterval,
		V15Enabled:    s.cfg.Timeline.V15Enabled,
		GroupID:       s.cfg.Timeline.GroupInstanceID,
	}, s.queue, s.client)
	go s.worker.Run(s.workerCtx)

	tracker.Configure(s.broker, tracker.Limits{
		SessionLimit:   s.cfg.Tracker.SessionLimit,
		ExecutionLimit: s.cfg.Tracker.ExecutionLimit,
	}, s.Stop)

	if err := s.container.Start(extension.Binding{AppID: b.AppID, AttemptID: b.AttemptID}); err != nil {
		log.WithComponent("service").Error().Err(err).Msg("extension container start failed")
	}

	if s.cfg.Timeline.Listen {
		s.sub = s.broker.Subscribe()
		go s.consumeBus()
	}

	log.WithAppID(b.AppID).With().Str("component", "service").Str("attempt_id", b.AttemptID).Logger().
		Info().Msg("timeline forwarding service started")
	return nil
}

func (s *Service) consumeBus() {
	for ev := range s.sub {
		s.intake.Process(ev)
	}
}

// Stop transitions Started -> Stopped (spec.md §4.5 "stop()"). Calling it
// from any other state is a no-op.
func (s *Service) Stop() {
	if !s.state.CompareAndSwap(int32(Started), int32(Stopped)) {
		return
	}

	if s.sub != nil {
		s.broker.Unsubscribe(s.sub)
	}

	s.intake.Process(sparkevent.ApplicationEnd{Time: s.clock.Now().UnixMilli()})
	s.intake.Flush()

	stop := timeline.NewStopQueue(s.clock.Now(), s.cfg.Timeline.ShutdownWaitTime.Milliseconds())
	s.intake.Stop()
	s.queue.PushBack(stop)

	select {
	case <-s.worker.Done():
	case <-time.After(s.cfg.Timeline.ShutdownWaitTime):
		log.WithComponent("service").Warn().Msg("worker did not drain within shutdownWaitTime; interrupting")
		s.workerCancel()
		<-s.worker.Done()
	}

	s.container.Stop()
	metrics.UnregisterComponent("posting-queue")
	metrics.UnregisterComponent("timeline-client")
	log.WithAppID(s.binding.AppID).With().Str("component", "service").Logger().
		Info().Msg("timeline forwarding service stopped")
}

// CurrentState returns the service's lifecycle state.
func (s *Service) CurrentState() State {
	return State(s.state.Load())
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
