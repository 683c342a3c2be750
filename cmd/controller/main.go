package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

var CLI struct {
	ConfigDir string `help:"Directory holding drone_config.yaml." default:"config" type:"path" name:"config-dir"`
	LogLevel  string `help:"Override the configured log level (debug, info, warn, error)." name:"log-level"`

	Serve struct {
		Headless bool `help:"Run the drone without the HTTP API."`
	} `cmd:"" default:"1" help:"Run the drone controller."`

	Send struct {
		Address string   `help:"Controller request socket." default:"tcp://localhost:5555"`
		Command []string `arg:"" help:"Command verb and duration, e.g. MoveForward 2.0."`
	} `cmd:"" help:"Submit a scripted command to a running controller."`

	Status struct {
		Address string `help:"Controller request socket." default:"tcp://localhost:5555"`
	} `cmd:"" help:"Print the status token and the latest drone snapshot."`

	Record struct {
		Address string `help:"Controller request socket." default:"tcp://localhost:5555"`
		Action  string `arg:"" optional:"" default:"toggle" enum:"toggle,section_start,section_stop" help:"Recorder action."`
		Index   int    `help:"Section index for section_start."`
	} `cmd:"" help:"Toggle manual recording or mark sections."`

	Watch struct {
		Address string   `help:"Controller telemetry socket." default:"tcp://localhost:5556"`
		Topics  []string `help:"Topics to subscribe to; all when empty."`
	} `cmd:"" help:"Print telemetry published by a running controller."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dronecontrols"),
		kong.Description("scripted drone camera controller"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	var err error
	switch ctx.Command() {
	case "serve":
		err = serveCommand(CLI.ConfigDir, CLI.LogLevel, CLI.Serve.Headless)
	case "send <command>":
		err = sendCommand(CLI.Send.Address, strings.Join(CLI.Send.Command, " "))
	case "status":
		err = statusCommand(CLI.Status.Address)
	case "record", "record <action>":
		err = recordCommand(CLI.Record.Address, CLI.Record.Action, CLI.Record.Index)
	case "watch":
		err = watchCommand(CLI.Watch.Address, CLI.Watch.Topics)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		writeError(err)
	}
}
