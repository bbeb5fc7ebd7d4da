package txn

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/secretagi/engine/internal/action"
	"github.com/secretagi/engine/internal/model"
)

type harness struct {
	coord     *Coordinator
	games     *mockGameRepo
	snapshots *mockSnapshotRepo
	actions   *mockActionRepo
	events    *mockEventRepo
	chat      *mockChatRepo
	cache     *mockCache
}

func newHarness() *harness {
	h := &harness{
		games:     newMockGameRepo(),
		snapshots: newMockSnapshotRepo(),
		actions:   newMockActionRepo(),
		events:    newMockEventRepo(),
		chat:      newMockChatRepo(),
		cache:     newMockCache(),
	}
	h.coord = New(action.New(action.DefaultConfig()), h.games, h.snapshots, h.actions, h.events, h.chat, h.cache)
	return h
}

func seedGame(t *testing.T, h *harness, gameID string, playerIDs []string) *model.GameState {
	t.Helper()
	gs, err := action.NewGame(gameID, model.GameConfig{PlayerIDs: playerIDs, Seed: 42})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if err := h.games.Create(context.Background(), model.GameRow{ID: gameID, Status: model.StatusActive, CurrentTurn: 0}); err != nil {
		t.Fatalf("create game row: %v", err)
	}
	blob, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal initial state: %v", err)
	}
	if err := h.snapshots.Save(context.Background(), model.StateSnapshot{ID: "snap-0", GameID: gameID, TurnNumber: 0, StateBlob: blob}); err != nil {
		t.Fatalf("save initial snapshot: %v", err)
	}
	return gs
}

func TestSubmitAcceptedActionPersistsSnapshotAndEvents(t *testing.T) {
	h := newHarness()
	gameID := "g1"
	gs := seedGame(t, h, gameID, []string{"p1", "p2", "p3", "p4", "p5"})
	director := gs.Players[gs.CurrentDirectorIndex].ID

	var nominee string
	for _, p := range gs.Players {
		if p.ID != director {
			nominee = p.ID
			break
		}
	}

	next, evts, outcome, err := h.coord.Submit(context.Background(), gameID, director, model.ActionNominate, map[string]any{"target_id": nominee})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if next.NominatedEngineerID != nominee {
		t.Fatalf("expected nominee %s recorded, got %s", nominee, next.NominatedEngineerID)
	}
	if len(evts) == 0 {
		t.Fatal("expected at least one event")
	}

	latest, err := h.snapshots.Latest(context.Background(), gameID)
	if err != nil || latest == nil {
		t.Fatalf("expected a persisted snapshot, err=%v", err)
	}
	if latest.TurnNumber != next.TurnNumber {
		t.Fatalf("expected snapshot at turn %d, got %d", next.TurnNumber, latest.TurnNumber)
	}

	stored, err := h.events.ListSince(context.Background(), gameID, 0)
	if err != nil || len(stored) == 0 {
		t.Fatalf("expected stored events, err=%v count=%d", err, len(stored))
	}

	turn, _, ok, _ := h.cache.GetCurrent(context.Background(), gameID)
	if !ok || turn != next.TurnNumber {
		t.Fatalf("expected cache warmed to turn %d, got turn=%d ok=%v", next.TurnNumber, turn, ok)
	}
}

func TestSubmitRejectedActionRecordsFailureWithoutMutatingState(t *testing.T) {
	h := newHarness()
	gameID := "g2"
	gs := seedGame(t, h, gameID, []string{"p1", "p2", "p3", "p4", "p5"})

	var notDirector string
	for _, p := range gs.Players {
		if p.ID != gs.Players[gs.CurrentDirectorIndex].ID {
			notDirector = p.ID
			break
		}
	}

	_, _, outcome, err := h.coord.Submit(context.Background(), gameID, notDirector, model.ActionNominate, map[string]any{"target_id": notDirector})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected rejection for non-director nomination")
	}
	if outcome.ErrorCode != model.ErrNotActor {
		t.Fatalf("expected ErrNotActor, got %s", outcome.ErrorCode)
	}

	latest, err := h.snapshots.Latest(context.Background(), gameID)
	if err != nil || latest == nil {
		t.Fatalf("expected seed snapshot to survive, err=%v", err)
	}
	if latest.TurnNumber != 0 {
		t.Fatalf("expected no new snapshot for a rejected action, got turn %d", latest.TurnNumber)
	}

	recs, err := h.actions.ListByGame(context.Background(), gameID)
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one recorded action, got %d, err=%v", len(recs), err)
	}
	if recs[0].Validity != model.ValidityInvalid {
		t.Fatalf("expected invalid validity, got %s", recs[0].Validity)
	}
}

func TestSubmitChatMessagePersistsToTranscript(t *testing.T) {
	h := newHarness()
	gameID := "g3"
	gs := seedGame(t, h, gameID, []string{"p1", "p2", "p3", "p4", "p5"})
	speaker := gs.Players[0].ID

	_, _, outcome, err := h.coord.Submit(context.Background(), gameID, speaker, model.ActionSendChatMessage, map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}

	transcript, err := h.chat.ListByGame(context.Background(), gameID)
	if err != nil || len(transcript) != 1 {
		t.Fatalf("expected one chat row, got %d, err=%v", len(transcript), err)
	}
	if transcript[0].Message != "hello" || transcript[0].SpeakerID != speaker {
		t.Fatalf("unexpected chat row: %+v", transcript[0])
	}
}

func TestSubmitUnknownGameErrors(t *testing.T) {
	h := newHarness()
	_, _, _, err := h.coord.Submit(context.Background(), "missing", "p1", model.ActionSendChatMessage, map[string]any{"message": "hi"})
	if err == nil {
		t.Fatal("expected an error for a game with no snapshot")
	}
}
