// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package testing provides scenario helpers for exercising agents without a
// live model: a scripted provider, a scenario runner driving the executor
// surface, and expectations over output, artifacts, and error codes.
package testing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tradewind-ai/tradewind/pkg/a2a/server"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// Result is the outcome of one scenario run.
type Result struct {
	Payload   any
	Artifacts []types.Artifact
	Err       error
	Elapsed   time.Duration
}

// Output returns the payload as text when it is one.
func (r *Result) Output() string {
	if s, ok := r.Payload.(string); ok {
		return s
	}
	return ""
}

// Artifact returns the first artifact with the given name.
func (r *Result) Artifact(name string) (types.Artifact, bool) {
	for _, artifact := range r.Artifacts {
		if artifact.Name == name {
			return artifact, true
		}
	}
	return types.Artifact{}, false
}

// Expectation checks one condition on a result.
type Expectation func(r *Result) error

// Scenario drives an executor with one instruction and checks expectations.
type Scenario struct {
	name         string
	instruction  string
	contextID    string
	timeout      time.Duration
	expectations []Expectation
}

func NewScenario(name string) *Scenario {
	return &Scenario{
		name:      name,
		contextID: uuid.NewString(),
		timeout:   30 * time.Second,
	}
}

func (s *Scenario) WithInstruction(instruction string) *Scenario {
	s.instruction = instruction
	return s
}

func (s *Scenario) WithContextID(contextID string) *Scenario {
	s.contextID = contextID
	return s
}

func (s *Scenario) WithTimeout(d time.Duration) *Scenario {
	s.timeout = d
	return s
}

func (s *Scenario) Expect(exp Expectation) *Scenario {
	s.expectations = append(s.expectations, exp)
	return s
}

// ExpectOutputContains asserts the text payload contains substr.
func (s *Scenario) ExpectOutputContains(substr string) *Scenario {
	return s.Expect(func(r *Result) error {
		if !strings.Contains(r.Output(), substr) {
			return fmt.Errorf("output %q does not contain %q", r.Output(), substr)
		}
		return nil
	})
}

// ExpectNoError asserts the run succeeded.
func (s *Scenario) ExpectNoError() *Scenario {
	return s.Expect(func(r *Result) error {
		if r.Err != nil {
			return fmt.Errorf("unexpected error: %v", r.Err)
		}
		return nil
	})
}

// ExpectErrorCode asserts the run failed with the given code.
func (s *Scenario) ExpectErrorCode(code errors.ErrorCode) *Scenario {
	return s.Expect(func(r *Result) error {
		if r.Err == nil {
			return fmt.Errorf("expected error code %s, got success", code)
		}
		if got := errors.CodeOf(r.Err); got != code {
			return fmt.Errorf("error code = %s, want %s", got, code)
		}
		return nil
	})
}

// ExpectArtifact asserts an artifact with the given name was produced.
func (s *Scenario) ExpectArtifact(name string) *Scenario {
	return s.Expect(func(r *Result) error {
		if _, ok := r.Artifact(name); !ok {
			return fmt.Errorf("no artifact named %q in %d artifacts", name, len(r.Artifacts))
		}
		return nil
	})
}

// ExpectArtifactCount asserts the number of artifacts produced.
func (s *Scenario) ExpectArtifactCount(n int) *Scenario {
	return s.Expect(func(r *Result) error {
		if len(r.Artifacts) != n {
			return fmt.Errorf("artifact count = %d, want %d", len(r.Artifacts), n)
		}
		return nil
	})
}

// Run executes the scenario against the executor and checks every
// expectation.
func (s *Scenario) Run(t *testing.T, executor server.Executor) *Result {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	message := &types.Message{
		MessageID: uuid.NewString(),
		Role:      "user",
		ContextID: s.contextID,
		Parts:     []types.Part{types.TextPart(s.instruction)},
	}

	start := time.Now()
	payload, artifacts, err := executor.Run(ctx, message)
	result := &Result{
		Payload:   payload,
		Artifacts: artifacts,
		Err:       err,
		Elapsed:   time.Since(start),
	}

	for i, exp := range s.expectations {
		if err := exp(result); err != nil {
			t.Errorf("scenario %q expectation %d: %v", s.name, i+1, err)
		}
	}
	return result
}
