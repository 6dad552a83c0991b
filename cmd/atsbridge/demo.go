package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/atsbridge/pkg/bus"
	"github.com/cuemby/atsbridge/pkg/clock"
	"github.com/cuemby/atsbridge/pkg/config"
	"github.com/cuemby/atsbridge/pkg/service"
	"github.com/cuemby/atsbridge/pkg/sparkevent"
	_ "github.com/cuemby/atsbridge/pkg/tracker"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// demoCmd runs a self-contained application attempt entirely in-process,
// without a remote Timeline Server, to exercise the pipeline end to end.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a synthetic application attempt through the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		cfg.Timeline.ServerAddr = "http://127.0.0.1:0"
		cfg.Timeline.ShutdownWaitTime = 2 * time.Second

		broker := bus.NewBroker()
		broker.Start()
		defer broker.Stop()

		svc := service.New(cfg, clock.System{}, broker, []string{"session-tracker"})
		if err := svc.Start(context.Background(), service.Binding{AppID: "demo-app"}); err != nil {
			return err
		}

		sessionID := uuid.New().String()
		execID := uuid.New().String()
		groupID := uuid.New().String()
		now := time.Now().UnixMilli()

		broker.Publish(sparkevent.ApplicationStart{
			AppID:     "demo-app",
			AppName:   "atsbridge demo",
			SparkUser: "demo",
		})
		broker.Publish(sparkevent.SessionCreated{SessionID: sessionID, Start: now, User: "demo"})
		broker.Publish(sparkevent.StatementStart{
			ExecID:    execID,
			Statement: "SELECT 1",
			SessionID: sessionID,
			Start:     now,
			User:      "demo",
			GroupID:   groupID,
		})
		broker.Publish(sparkevent.JobStart{
			JobID:      1,
			Properties: map[string]string{sparkevent.JobGroupProperty: groupID},
		})
		broker.Publish(sparkevent.StatementFinish{ExecID: execID, Time: time.Now().UnixMilli()})
		time.Sleep(200 * time.Millisecond)

		svc.Stop()
		fmt.Println("demo run complete")
		return nil
	},
}
