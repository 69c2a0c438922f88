package tools

import (
	"context"
	"fmt"

	"github.com/guidomitolo/my-home-assistant/internal/action"
)

func (r *Registry) registerActionTool() {
	r.Register(&Tool{
		Name:        "trigger_service",
		Description: "Turn an entity on or off, or toggle it. Works for lights, switches, fans and similar controllable entities.",
		Parameters: schemaObject(map[string]any{
			"entity_id": stringProp("The full entity ID to control, e.g. 'light.kitchen_main'"),
			"command":   stringProp("One of 'on', 'off' or 'toggle'"),
		}, "entity_id", "command"),
		Handler: r.handleTriggerService,
	})
}

func (r *Registry) handleTriggerService(ctx context.Context, args map[string]any) (string, error) {
	entityID, err := requireString(args, "entity_id")
	if err != nil {
		return "", err
	}
	rawCmd, err := requireString(args, "command")
	if err != nil {
		return "", err
	}
	cmd, err := action.ParseCommand(rawCmd)
	if err != nil {
		return "", err
	}

	result, err := r.actions.Trigger(ctx, entityID, cmd)
	if err != nil {
		return "", err
	}

	// Confirmable domains come back with a fresh post-action state;
	// everything else only gets the service call acknowledgement.
	if result.State != nil {
		return toJSON(result.State), nil
	}
	return fmt.Sprintf("Service call %s accepted for %s.", rawCmd, entityID), nil
}
