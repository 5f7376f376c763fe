package genai

import (
	"context"
	"sync"
)

// ScriptedClient replays a fixed sequence of responses. Used by tests and by
// local development when no credential is configured but a deterministic AI
// path is still wanted.
type ScriptedClient struct {
	mu      sync.Mutex
	script  []ScriptStep
	calls   int
	prompts []string
}

// ScriptStep is one canned Generate outcome.
type ScriptStep struct {
	Text string
	Err  error
}

func NewScriptedClient(steps ...ScriptStep) *ScriptedClient {
	return &ScriptedClient{script: steps}
}

func (c *ScriptedClient) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.prompts = append(c.prompts, prompt)
	if len(c.script) == 0 {
		return "", nil
	}
	step := c.script[0]
	if len(c.script) > 1 {
		c.script = c.script[1:]
	}
	return step.Text, step.Err
}

// Calls reports how many Generate invocations the client has seen.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// LastPrompt returns the most recent prompt, or "" when none were sent.
func (c *ScriptedClient) LastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.prompts) == 0 {
		return ""
	}
	return c.prompts[len(c.prompts)-1]
}
