// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Command tradewind runs the supervisor and worker agents and talks to a
// running deployment.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/config"
)

const version = "0.3.0"

type globalFlags struct {
	ConfigPath string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		fatal(err)
	}

	switch cmd := args[0]; cmd {
	case "supervisor":
		ensureNoArgs(args[1:])
		if err := runSupervisor(ctx, cfg); err != nil {
			fatal(err)
		}
	case "worker":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: tradewind worker <planner|browser|knowledge|executor>"))
		}
		ensureNoArgs(args[2:])
		if err := runWorker(ctx, cfg, args[1]); err != nil {
			fatal(err)
		}
	case "agents":
		runAgents(ctx, global, cfg)
	case "send":
		runSend(ctx, global, cfg, args[1:])
	case "status":
		runStatus(ctx, global, cfg, args[1:])
	case "version":
		fmt.Printf("tradewind %s\n", version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", cmd))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		ConfigPath: os.Getenv("TRADEWIND_CONFIG"),
		Timeout:    5 * time.Minute,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func ensureNoArgs(args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected arguments: %s", strings.Join(args, " ")))
	}
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "tradewind: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`tradewind - multi-agent trading workflow runtime

Usage:
  tradewind [global flags] <command> [args]

Commands:
  supervisor             Serve the supervisor A2A endpoint
  worker <role>          Serve a worker agent (planner|browser|knowledge|executor)
  agents                 Fetch agent cards from the deployment
  send <instruction>     Submit a workflow request to the supervisor
  status <task-id>       Show the state of a submitted task
  version                Print the version
  help                   Show this help

Global flags:
  --config <path>        Config file (default: $TRADEWIND_CONFIG)
  --timeout <duration>   Client timeout (default 5m)
  --json                 JSON output for client commands
`)
}
