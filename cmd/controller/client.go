package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/open-teleop/dronecontrols/pkg/geom"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/open-teleop/dronecontrols/pkg/telemetry"
	"github.com/open-teleop/dronecontrols/pkg/zeromq"
)

const requestTimeout = 3 * time.Second

func sendCommand(address, line string) error {
	client, err := zeromq.Dial(address, requestTimeout)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.SendCommand(line)
	var remote *zeromq.RemoteError
	if errors.As(err, &remote) && remote.Busy() {
		return fmt.Errorf("controller is busy with an unread command, try again")
	}
	if err != nil {
		return err
	}
	fmt.Printf("accepted %s\n", resp.Command)
	return nil
}

func statusCommand(address string) error {
	client, err := zeromq.Dial(address, requestTimeout)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Status()
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func recordCommand(address, action string, index int) error {
	client, err := zeromq.Dial(address, requestTimeout)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Record(action, index); err != nil {
		return err
	}
	fmt.Printf("queued %s\n", action)
	return nil
}

func watchCommand(address string, topics []string) error {
	logger, err := customlog.NewLogrusLogger("warn", "", customlog.Rotation{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub := zeromq.NewTelemetrySubscriber(address, topics, logger)
	return sub.Run(ctx,
		func(frame telemetry.DecodedFrame) {
			s := frame.Snapshot
			fmt.Printf("%s tick=%d clock=%.3f %s %s executing=%t recording=%t\n",
				frame.Topic, s.Tick, s.Clock, geom.FormatVector(s.Location), s.Orientation, s.State.Executing, s.State.Recording)
		},
		func(topic string, payload []byte) {
			fmt.Printf("%s %s\n", topic, payload)
		})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
