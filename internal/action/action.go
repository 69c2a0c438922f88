// Package action maps command verbs onto hub service calls and confirms
// their effect where the domain allows it.
package action

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// Command is a supported switch-like command verb.
type Command string

const (
	CommandOn     Command = "on"
	CommandOff    Command = "off"
	CommandToggle Command = "toggle"
)

// SettleDelay is how long the service waits after posting an action
// before re-reading the entity state. The hub applies service calls
// asynchronously; domains that reflect state promptly do so well within
// this window. Tune here, not per call.
const SettleDelay = 1 * time.Second

// confirmDomains are the domains known to reflect a service call in
// their state quickly enough for a post-action re-read to be meaningful.
var confirmDomains = map[string]bool{
	"switch": true,
	"light":  true,
	"fan":    true,
	"remote": true,
}

// Hub is the slice of the Home Assistant client the action service uses.
type Hub interface {
	CallService(ctx context.Context, domain, action string, data map[string]any) (json.RawMessage, error)
}

// StateReader fetches the post-action state for confirmation.
type StateReader interface {
	GetEntityState(ctx context.Context, entityID string) (*schema.State, error)
}

// Result is the outcome of a trigger: the confirmed state for domains
// that support it, otherwise the raw hub response.
type Result struct {
	State *schema.State
	Raw   json.RawMessage
}

// Service executes commands against the hub.
type Service struct {
	hub    Hub
	states StateReader
	logger *slog.Logger

	// settle is SettleDelay unless a test shortens it.
	settle time.Duration
}

// NewService creates an action service.
func NewService(hub Hub, states StateReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{hub: hub, states: states, logger: logger, settle: SettleDelay}
}

// ParseCommand validates a command verb.
func ParseCommand(s string) (Command, error) {
	switch Command(strings.ToLower(strings.TrimSpace(s))) {
	case CommandOn:
		return CommandOn, nil
	case CommandOff:
		return CommandOff, nil
	case CommandToggle:
		return CommandToggle, nil
	default:
		return "", fmt.Errorf("unsupported command %q (valid: on, off, toggle)", s)
	}
}

// serviceAction maps a command to the hub's service verb.
func serviceAction(cmd Command) string {
	if cmd == CommandToggle {
		return "toggle"
	}
	return "turn_" + string(cmd)
}

// Trigger executes a command on an entity. The domain is derived from
// the entity ID prefix; an ID without a domain separator is rejected
// before any network call. For domains that reflect state promptly the
// service waits SettleDelay and returns the re-read state; other
// domains return the raw action response without a confirmatory read.
func (s *Service) Trigger(ctx context.Context, entityID string, cmd Command) (*Result, error) {
	if _, err := ParseCommand(string(cmd)); err != nil {
		return nil, err
	}

	domain := schema.EntityDomain(entityID)
	if domain == "" {
		return nil, fmt.Errorf("invalid entity_id %q: missing domain separator", entityID)
	}

	act := serviceAction(cmd)
	raw, err := s.hub.CallService(ctx, domain, act, map[string]any{"entity_id": entityID})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", act, entityID, err)
	}

	s.logger.Info("executed service action",
		"entity_id", entityID,
		"action", act,
	)

	if !confirmDomains[domain] {
		return &Result{Raw: raw}, nil
	}

	// Give the hub time to reflect the side effect before confirming.
	timer := time.NewTimer(s.settle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	state, err := s.states.GetEntityState(ctx, entityID)
	if err != nil {
		// The action itself succeeded; surface the raw response rather
		// than failing the whole call on a confirmation hiccup.
		s.logger.Warn("post-action state read failed",
			"entity_id", entityID,
			"error", err,
		)
		return &Result{Raw: raw}, nil
	}
	return &Result{State: state, Raw: raw}, nil
}
