package action

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/secretagi/engine/internal/model"
)

// newID generates a random, URL-safe identifier for events and action
// records, matching the alphabet and fallback strategy of the teacher's
// logger.NewRequestID (internal/logger/logger.go), scaled up for
// collision-resistance across a full game's event log.
func newID(prefix string) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 16

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s%012d", prefix, time.Now().UnixNano()%1000000000000)
	}
	for i := range b {
		b[i] = charset[b[i]%byte(len(charset))]
	}
	return prefix + string(b)
}

func newStateChangedEvent(actorID string, turn int, kind model.ActionKind) model.Event {
	return model.Event{
		ID:         newID("evt_"),
		Type:       model.EventStateChanged,
		ActorID:    actorID,
		TurnNumber: turn,
		Payload:    map[string]any{"kind": string(kind)},
	}
}

func newPhaseTransitionEvent(turn int, phase model.Phase, sub model.SubPhase) model.Event {
	return model.Event{
		ID:         newID("evt_"),
		Type:       model.EventPhaseTransition,
		TurnNumber: turn,
		Payload: map[string]any{
			"phase":     string(phase),
			"sub_phase": string(sub),
		},
	}
}

func newPaperPublishedEvent(turn int, actorID string, p model.Paper, autopublish bool) model.Event {
	return model.Event{
		ID:         newID("evt_"),
		Type:       model.EventPaperPublished,
		ActorID:    actorID,
		TurnNumber: turn,
		Payload: map[string]any{
			"paper_id":    p.ID,
			"capability":  p.Capability,
			"safety":      p.Safety,
			"autopublish": autopublish,
		},
	}
}

func newPowerTriggeredEvent(turn int, threshold int, targetID string) model.Event {
	payload := map[string]any{"threshold": threshold}
	if targetID != "" {
		payload["target_id"] = targetID
	}
	return model.Event{
		ID:         newID("evt_"),
		Type:       model.EventPowerTriggered,
		TurnNumber: turn,
		Payload:    payload,
	}
}

func newVoteCompletedEvent(turn int, kind string, passed bool, yes, no int) model.Event {
	return model.Event{
		ID:         newID("evt_"),
		Type:       model.EventVoteCompleted,
		TurnNumber: turn,
		Payload: map[string]any{
			"kind":   kind,
			"passed": passed,
			"yes":    yes,
			"no":     no,
		},
	}
}

func newChatMessageEvent(turn int, actorID, message string) model.Event {
	return model.Event{
		ID:         newID("evt_"),
		Type:       model.EventChatMessage,
		ActorID:    actorID,
		TurnNumber: turn,
		Payload:    map[string]any{"message": message},
	}
}

func newGameEndedEvent(turn int, winners []model.Role) model.Event {
	roles := make([]string, len(winners))
	for i, r := range winners {
		roles[i] = string(r)
	}
	return model.Event{
		ID:         newID("evt_"),
		Type:       model.EventGameEnded,
		TurnNumber: turn,
		Payload:    map[string]any{"winners": roles},
	}
}
