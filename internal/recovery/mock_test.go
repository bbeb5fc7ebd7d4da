package recovery

import (
	"context"

	"github.com/secretagi/engine/internal/model"
)

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
	rec := m.recs[actionID]
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
