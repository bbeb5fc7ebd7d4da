package action

import "github.com/secretagi/engine/internal/model"

func requirePhase(c *actionCtx, phase model.Phase) *Outcome {
	if c.next.CurrentPhase != phase {
		o := Outcome{Success: false, ErrorCode: model.ErrInvalidPhase, ErrorMessage: "action not valid in current phase"}
		return &o
	}
	return nil
}

func requireSubPhase(c *actionCtx, sub model.SubPhase) *Outcome {
	if c.next.SubPhase != sub {
		o := Outcome{Success: false, ErrorCode: model.ErrInvalidPhase, ErrorMessage: "action not valid in current sub-phase"}
		return &o
	}
	return nil
}

func requireActorIs(c *actionCtx, expected string) *Outcome {
	if expected == "" || c.actorID != expected {
		o := Outcome{Success: false, ErrorCode: model.ErrNotActor, ErrorMessage: "actor is not authorized to take this action"}
		return &o
	}
	return nil
}

func requireAlive(c *actionCtx, id string) *Outcome {
	p, ok := findPlayer(c.next.Players, id)
	if !ok || !p.Alive {
		o := Outcome{Success: false, ErrorCode: model.ErrIneligibleTarget, ErrorMessage: "player is not alive or does not exist"}
		return &o
	}
	return nil
}

func paramString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func paramBool(params map[string]any, key string) (bool, bool) {
	v, ok := params[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
