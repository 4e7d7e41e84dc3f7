// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tradewind-ai/tradewind/pkg/a2a/client"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/config"
	"github.com/tradewind-ai/tradewind/pkg/discovery"
)

// runAgents probes every endpoint of the deployment for its agent card,
// supervisor included.
func runAgents(ctx context.Context, global globalFlags, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	table, err := discovery.NewConfigProvider(cfg)
	if err != nil {
		fatal(err)
	}
	entries, err := table.List(ctx)
	if err != nil {
		fatal(err)
	}
	endpoints := make(map[string]string, len(entries))
	for _, entry := range entries {
		endpoints[entry.Name] = entry.URL
	}

	resolver, err := discovery.NewResolver(discovery.NewWellKnownProvider(endpoints), table)
	if err != nil {
		fatal(err)
	}
	agents, err := resolver.Resolve(ctx)
	if err != nil {
		fatal(err)
	}

	if global.JSON {
		printJSON(agents)
		return
	}
	for _, agent := range agents {
		if !agent.Reachable {
			fmt.Printf("%-12s %s (unreachable)\n", agent.Name, agent.URL)
			continue
		}
		fmt.Printf("%-12s %s v%s [%s]\n", agent.Name, agent.URL, agent.Version, strings.Join(agent.Skills, ", "))
	}
}

// runSend submits a workflow instruction to the supervisor and waits for the
// result.
func runSend(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: tradewind send <instruction>"))
	}
	instruction := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	supervisorURL, err := cfg.AgentURL("supervisor")
	if err != nil {
		fatal(err)
	}

	c := client.New(supervisorURL)
	resp, err := c.SendMessage(ctx, &types.SendMessageRequest{
		Message: &types.Message{
			MessageID: uuid.NewString(),
			Role:      "user",
			ContextID: uuid.NewString(),
			Parts:     []types.Part{types.TextPart(instruction)},
		},
		Configuration: &types.SendMessageConfiguration{Blocking: true},
	})
	if err != nil {
		fatal(err)
	}

	if global.JSON {
		printJSON(resp)
		return
	}
	if resp.Task != nil {
		printTask(resp.Task)
	}
	if resp.Message != nil {
		fmt.Println(resp.Message.Text())
	}
}

// runStatus shows one task by ID, or lists recent tasks when no ID is given.
func runStatus(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	supervisorURL, err := cfg.AgentURL("supervisor")
	if err != nil {
		fatal(err)
	}
	c := client.New(supervisorURL)

	if len(args) == 0 {
		resp, err := c.ListTasks(ctx, &types.ListTasksRequest{})
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(resp)
			return
		}
		for _, task := range resp.Tasks {
			fmt.Printf("%s  %-10s  %s\n", task.ID, task.Status.State, task.Status.Timestamp.Format("2006-01-02 15:04:05"))
		}
		return
	}

	ensureNoArgs(args[1:])
	task, err := c.GetTask(ctx, &types.GetTaskRequest{ID: args[0]})
	if err != nil {
		fatal(err)
	}
	if global.JSON {
		printJSON(task)
		return
	}
	printTask(task)
}

func printTask(task *types.Task) {
	fmt.Printf("task:    %s\n", task.ID)
	fmt.Printf("context: %s\n", task.ContextID)
	fmt.Printf("state:   %s\n", task.Status.State)
	if task.Status.Message != nil {
		if text := task.Status.Message.Text(); text != "" {
			fmt.Printf("message: %s\n", text)
		}
	}
	for _, artifact := range task.Artifacts {
		fmt.Printf("artifact %s:\n", artifact.Name)
		for _, part := range artifact.Parts {
			if part.Kind == "text" {
				fmt.Printf("  %s\n", part.Text)
				continue
			}
			for key, value := range part.Data {
				fmt.Printf("  %s: %v\n", key, value)
			}
		}
	}
}
