package action

import "github.com/secretagi/engine/internal/model"

// sendChatMessage appends a free-text message to the game's chat log. Any
// player, alive or eliminated, may send one; chat never blocks on phase or
// sub-phase (spec.md §4.2 "send_chat_message is valid in every phase").
func (p *Processor) sendChatMessage(c *actionCtx, params map[string]any) Outcome {
	message, ok := paramString(params, "message")
	if !ok || message == "" {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "message is required"}
	}
	if _, ok := findPlayer(c.next.Players, c.actorID); !ok {
		return Outcome{Success: false, ErrorCode: model.ErrNotActor, ErrorMessage: "actor is not seated in this game"}
	}
	c.emit(newChatMessageEvent(c.turn, c.actorID, message))
	return Outcome{Success: true}
}
