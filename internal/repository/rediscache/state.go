package rediscache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func stateKey(gameID string) string { return "game:" + gameID + ":state" }

type envelope struct {
	Turn  int             `json:"turn"`
	State json.RawMessage `json:"state"`
}

// SetCurrent stores the current turn number and GameState JSON for a game,
// overwriting whatever was cached before.
func (c *Client) SetCurrent(ctx context.Context, gameID string, turn int, state json.RawMessage) error {
	env, err := json.Marshal(envelope{Turn: turn, State: state})
	if err != nil {
		return fmt.Errorf("marshal cache envelope: %w", err)
	}
	if err := c.rdb.Set(ctx, stateKey(gameID), env, 0).Err(); err != nil {
		return fmt.Errorf("set cached state: %w", err)
	}
	return nil
}

// GetCurrent retrieves the cached turn number and GameState JSON for a
// game. ok is false on a cache miss, which the caller must treat as
// "rebuild from Postgres," never as an error.
func (c *Client) GetCurrent(ctx context.Context, gameID string) (turn int, state json.RawMessage, ok bool, err error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, fmt.Errorf("get cached state: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, nil, false, fmt.Errorf("unmarshal cache envelope: %w", err)
	}
	return env.Turn, env.State, true, nil
}

// Invalidate drops the cached entry for a game, forcing the next read to
// fall back to Postgres.
func (c *Client) Invalidate(ctx context.Context, gameID string) error {
	if err := c.rdb.Del(ctx, stateKey(gameID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached state: %w", err)
	}
	return nil
}
