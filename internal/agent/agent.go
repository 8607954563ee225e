// Package agent provides the response capabilities the engine consumes: a
// canned demo responder, an interactive terminal responder, a scripted
// responder for tests and an OpenAI-compatible chat-completions responder.
package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
)

// ModelDemo and ModelHuman are the reserved model names that select the
// non-LLM responders.
const (
	ModelDemo  = "demo"
	ModelHuman = "human"
)

// Config describes one player's responder.
type Config struct {
	Name        string
	Model       string
	BaseURL     string
	APIKeyEnv   string
	Temperature float64
	MaxTokens   int64
	Seed        int64 // demo responder only
}

// Responder turns a prompt into free text. It matches the engine's consumed
// interface structurally; this package does not import the game package.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// New builds a responder from config, mirroring the model-name dispatch the
// player configuration uses: "human", "demo", or an LLM model name with a
// base URL and an API key environment variable.
func New(cfg Config) (Responder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Model)) {
	case ModelHuman:
		return NewHuman(cfg.Name, os.Stdin, os.Stdout), nil
	case ModelDemo:
		return NewDemo(cfg.Seed), nil
	case "":
		return nil, errors.New("model is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required for LLM model %q", cfg.Model)
	}
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable %q for player %q", cfg.APIKeyEnv, cfg.Name)
	}
	return NewOpenAI(cfg, apiKey), nil
}

// Demo replies with canned table-talk, useful for auto-play and tests.
type Demo struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var demoLines = []string{
	"I agree.",
	"I'm not sure about that.",
	"Let me think about it.",
	"That's interesting.",
	"I have my suspicions.",
}

// NewDemo creates a demo responder. A zero seed falls back to a fixed seed
// so unseeded games are reproducible.
func NewDemo(seed int64) *Demo {
	if seed == 0 {
		seed = 1
	}
	return &Demo{rng: rand.New(rand.NewSource(seed))}
}

// Respond returns a canned line.
func (d *Demo) Respond(_ context.Context, _ string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return demoLines[d.rng.Intn(len(demoLines))], nil
}

// Human prompts on a writer and reads one line from a reader, typically the
// terminal.
type Human struct {
	name   string
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewHuman creates a terminal-backed responder.
func NewHuman(name string, r io.Reader, w io.Writer) *Human {
	return &Human{name: name, reader: bufio.NewReader(r), writer: w}
}

// Respond prints the prompt and blocks for one line of input. The context is
// checked before reading; a read in flight cannot be interrupted, matching
// ordinary terminal behavior.
func (h *Human) Respond(ctx context.Context, prompt string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(h.writer, "\n%s\n[%s] your response: ", prompt, h.name)
	line, err := h.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Script replays queued replies in order; it backs deterministic tests and
// canned drivers. When the queue runs dry it returns Fallback, or an error
// if Fallback is empty.
type Script struct {
	mu       sync.Mutex
	replies  []string
	Fallback string
}

// NewScript creates a scripted responder.
func NewScript(replies ...string) *Script {
	return &Script{replies: replies}
}

// Push appends replies to the queue.
func (s *Script) Push(replies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Respond pops the next scripted reply.
func (s *Script) Respond(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		if s.Fallback != "" {
			return s.Fallback, nil
		}
		return "", errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}
