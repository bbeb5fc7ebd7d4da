package txn

import (
	"context"
	"encoding/json"

	"github.com/secretagi/engine/internal/model"
)

// mockGameRepo implements repository.GameRepository for testing.
type mockGameRepo struct {
	games map[string]model.GameRow
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{games: make(map[string]model.GameRow)}
}

func (m *mockGameRepo) Create(_ context.Context, row model.GameRow) error {
	m.games[row.ID] = row
	return nil
}

func (m *mockGameRepo) Get(_ context.Context, gameID string) (*model.GameRow, error) {
	row, ok := m.games[gameID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *mockGameRepo) UpdateProgress(_ context.Context, gameID string, currentTurn int, status model.GameStatus) error {
	row := m.games[gameID]
	row.CurrentTurn = currentTurn
	row.Status = status
	m.games[gameID] = row
	return nil
}

func (m *mockGameRepo) Finish(_ context.Context, gameID string, outcome model.FinalOutcome) error {
	row := m.games[gameID]
	row.Status = model.StatusCompleted
	row.FinalOutcome = &outcome
	m.games[gameID] = row
	return nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.GameRow, error) {
	var out []model.GameRow
	for _, row := range m.games {
		if row.Status == model.StatusActive {
			out = append(out, row)
		}
	}
	return out, nil
}

// mockSnapshotRepo implements repository.SnapshotRepository for testing.
type mockSnapshotRepo struct {
	byGame map[string][]model.StateSnapshot
}

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{byGame: make(map[string][]model.StateSnapshot)}
}

func (m *mockSnapshotRepo) Save(_ context.Context, snap model.StateSnapshot) error {
	m.byGame[snap.GameID] = append(m.byGame[snap.GameID], snap)
	return nil
}

func (m *mockSnapshotRepo) Latest(_ context.Context, gameID string) (*model.StateSnapshot, error) {
	snaps := m.byGame[gameID]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.TurnNumber > latest.TurnNumber {
			latest = s
		}
	}
	return &latest, nil
}

func (m *mockSnapshotRepo) AtTurn(_ context.Context, gameID string, turn int) (*model.StateSnapshot, error) {
	for _, s := range m.byGame[gameID] {
		if s.TurnNumber == turn {
			return &s, nil
		}
	}
	return nil, nil
}

// mockActionRepo implements repository.ActionRepository for testing.
type mockActionRepo struct {
	recs map[string]model.ActionRecord
}

func newMockActionRepo() *mockActionRepo {
	return &mockActionRepo{recs: make(map[string]model.ActionRecord)}
}

func (m *mockActionRepo) Record(_ context.Context, rec model.ActionRecord) error {
	m.recs[rec.ID] = rec
	return nil
}

func (m *mockActionRepo) MarkResult(_ context.Context, actionID string, validity model.Validity, errCode model.ErrorCode, errMsg string, processingNanos int64) error {
	rec, ok := m.recs[actionID]
	if !ok {
		return nil
	}
	rec.Validity = validity
	rec.ErrorCode = errCode
	rec.ErrorMessage = errMsg
	m.recs[actionID] = rec
	return nil
}

func (m *mockActionRepo) MarkRecovered(_ context.Context, actionID string) error {
	rec, ok := m.recs[actionID]
	if !ok {
		return nil
	}
	rec.Validity = model.ValidityInvalid
	rec.ErrorCode = model.ErrInternal
	rec.ErrorMessage = "interrupted action marked failed during recovery"
	rec.RecoveryMarked = true
	m.recs[actionID] = rec
	return nil
}

func (m *mockActionRepo) ListPending(_ context.Context, gameID string) ([]model.ActionRecord, error) {
	var out []model.ActionRecord
	for _, rec := range m.recs {
		if rec.GameID == gameID && rec.Validity == model.ValidityPending {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockActionRepo) ListByGame(_ context.Context, gameID string) ([]model.ActionRecord, error) {
	var out []model.ActionRecord
	for _, rec := range m.recs {
		if rec.GameID == gameID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// mockEventRepo implements repository.EventRepository for testing.
type mockEventRepo struct {
	byGame map[string][]model.Event
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{byGame: make(map[string][]model.Event)}
}

func (m *mockEventRepo) Append(_ context.Context, gameID string, events []model.Event) error {
	m.byGame[gameID] = append(m.byGame[gameID], events...)
	return nil
}

func (m *mockEventRepo) ListSince(_ context.Context, gameID string, sinceTurn int) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.byGame[gameID] {
		if e.TurnNumber >= sinceTurn {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockChatRepo implements repository.ChatRepository for testing.
type mockChatRepo struct {
	byGame map[string][]model.ChatMessage
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{byGame: make(map[string][]model.ChatMessage)}
}

func (m *mockChatRepo) Append(_ context.Context, msg model.ChatMessage) error {
	m.byGame[msg.GameID] = append(m.byGame[msg.GameID], msg)
	return nil
}

func (m *mockChatRepo) ListByGame(_ context.Context, gameID string) ([]model.ChatMessage, error) {
	return m.byGame[gameID], nil
}

// mockCache implements repository.StateCache for testing.
type mockCache struct {
	turn  map[string]int
	state map[string]json.RawMessage
}

func newMockCache() *mockCache {
	return &mockCache{turn: make(map[string]int), state: make(map[string]json.RawMessage)}
}

func (c *mockCache) SetCurrent(_ context.Context, gameID string, turn int, state json.RawMessage) error {
	c.turn[gameID] = turn
	c.state[gameID] = state
	return nil
}

func (c *mockCache) GetCurrent(_ context.Context, gameID string) (int, json.RawMessage, bool, error) {
	state, ok := c.state[gameID]
	if !ok {
		return 0, nil, false, nil
	}
	return c.turn[gameID], state, true, nil
}

func (c *mockCache) Invalidate(_ context.Context, gameID string) error {
	delete(c.turn, gameID)
	delete(c.state, gameID)
	return nil
}
