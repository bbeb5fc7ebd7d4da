package engine

import (
	"context"
	"testing"

	"github.com/secretagi/engine/internal/action"
	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/internal/recovery"
	"github.com/secretagi/engine/internal/txn"
)

type harness struct {
	eng       *Engine
	games     *mockGameRepo
	players   *mockPlayerRepo
	snapshots *mockSnapshotRepo
	actions   *mockActionRepo
	events    *mockEventRepo
	chat      *mockChatRepo
}

func newHarness(turnCap int) *harness {
	games := newMockGameRepo()
	players := newMockPlayerRepo()
	snapshots := newMockSnapshotRepo()
	actions := newMockActionRepo()
	events := newMockEventRepo()
	chat := newMockChatRepo()

	processor := action.New(action.DefaultConfig())
	coord := txn.New(processor, games, snapshots, actions, events, chat, newMockCache())
	recoverySvc := recovery.New(games, actions, snapshots)
	eng := New(processor, coord, recoverySvc, games, players, snapshots, events, chat, turnCap)

	return &harness{eng: eng, games: games, players: players, snapshots: snapshots, actions: actions, events: events, chat: chat}
}

func fivePlayerIDs() []string {
	return []string{"p1", "p2", "p3", "p4", "p5"}
}

func TestCreateGameBindsAndPersistsGenesisState(t *testing.T) {
	h := newHarness(500)
	ctx := context.Background()

	gameID, err := h.eng.CreateGame(ctx, model.GameConfig{PlayerIDs: fivePlayerIDs(), Seed: 7})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if gameID == "" {
		t.Fatal("expected a non-empty game id")
	}

	row, _ := h.games.Get(ctx, gameID)
	if row == nil || row.Status != model.StatusActive || row.CurrentTurn != 0 {
		t.Fatalf("expected an active turn-0 game row, got %+v", row)
	}

	seats, _ := h.players.ListSeats(ctx, gameID)
	if len(seats) != 5 {
		t.Fatalf("expected 5 seated players, got %d", len(seats))
	}

	snap, _ := h.snapshots.AtTurn(ctx, gameID, 0)
	if snap == nil {
		t.Fatal("expected a turn-0 snapshot")
	}

	if h.eng.current == nil || h.eng.current.TurnNumber != 0 {
		t.Fatalf("expected engine bound to turn 0, got %+v", h.eng.current)
	}
}

func TestCreateGameRejectsOutOfRangePlayerCount(t *testing.T) {
	h := newHarness(500)
	_, err := h.eng.CreateGame(context.Background(), model.GameConfig{PlayerIDs: []string{"a", "b", "c"}, Seed: 1})
	if err == nil {
		t.Fatal("expected an error for a 3-player game")
	}
}

func TestPerformActionNominateSucceedsAndAdvancesSubPhase(t *testing.T) {
	h := newHarness(500)
	ctx := context.Background()
	gameID, err := h.eng.CreateGame(ctx, model.GameConfig{PlayerIDs: fivePlayerIDs(), Seed: 11})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	director := h.eng.current.Players[h.eng.current.CurrentDirectorIndex].ID
	var target string
	for _, p := range h.eng.current.Players {
		if p.ID != director {
			target = p.ID
			break
		}
	}

	update, err := h.eng.PerformAction(ctx, director, model.ActionNominate, map[string]any{"target_id": target})
	if err != nil {
		t.Fatalf("perform action: %v", err)
	}
	if !update.Success {
		t.Fatalf("expected nominate to succeed, got error %+v", update.Error)
	}
	if update.StateView.SubPhase != model.SubAwaitTeamVote {
		t.Fatalf("expected sub-phase to advance to await_team_vote, got %s", update.StateView.SubPhase)
	}
	if len(update.EventsSinceLast) == 0 {
		t.Fatal("expected at least one event since last call")
	}

	row, _ := h.games.Get(ctx, gameID)
	if row.CurrentTurn != 1 {
		t.Fatalf("expected game progress to advance to turn 1, got %d", row.CurrentTurn)
	}
}

func TestPerformActionRejectedByWrongActorLeavesStateUnchanged(t *testing.T) {
	h := newHarness(500)
	ctx := context.Background()
	if _, err := h.eng.CreateGame(ctx, model.GameConfig{PlayerIDs: fivePlayerIDs(), Seed: 3}); err != nil {
		t.Fatalf("create game: %v", err)
	}

	director := h.eng.current.Players[h.eng.current.CurrentDirectorIndex].ID
	var impostor, target string
	for _, p := range h.eng.current.Players {
		if p.ID == director {
			continue
		}
		if impostor == "" {
			impostor = p.ID
		} else if target == "" {
			target = p.ID
		}
	}

	update, err := h.eng.PerformAction(ctx, impostor, model.ActionNominate, map[string]any{"target_id": target})
	if err != nil {
		t.Fatalf("perform action: %v", err)
	}
	if update.Success {
		t.Fatal("expected nomination by a non-director to be rejected")
	}
	if update.Error == nil || update.Error.Code != model.ErrNotActor {
		t.Fatalf("expected not_actor error, got %+v", update.Error)
	}
	if update.StateView.SubPhase != model.SubAwaitNomination {
		t.Fatalf("expected sub-phase to remain await_nomination, got %s", update.StateView.SubPhase)
	}
}

func TestFilterHidesRoleFromEachOtherPlayer(t *testing.T) {
	h := newHarness(500)
	ctx := context.Background()
	if _, err := h.eng.CreateGame(ctx, model.GameConfig{PlayerIDs: fivePlayerIDs(), Seed: 42}); err != nil {
		t.Fatalf("create game: %v", err)
	}

	gs := h.eng.current
	for _, actor := range gs.Players {
		view := Filter(gs, actor.ID)
		if view.OwnRole != actor.Role {
			t.Fatalf("expected %s's own_role to be %s, got %s", actor.ID, actor.Role, view.OwnRole)
		}
		for _, pub := range view.Players {
			if pub.ID == actor.ID {
				continue
			}
			// PublicPlayer carries no role/allegiance field at all; this
			// just documents that every entry besides the actor's own is
			// liveness/seating only.
			if pub.Alive != findPlayerAlive(gs.Players, pub.ID) {
				t.Fatalf("expected public liveness to match state for %s", pub.ID)
			}
		}
		if actor.Role != model.RoleAccelerationist && actor.Role != model.RoleAGI && view.KnownAllies != nil {
			t.Fatalf("expected a Safety player to have no known_allies, got %v", view.KnownAllies)
		}
	}
}

func findPlayerAlive(players []model.Player, id string) bool {
	for _, p := range players {
		if p.ID == id {
			return p.Alive
		}
	}
	return false
}

func TestSimulateToCompletionReachesGameOver(t *testing.T) {
	h := newHarness(1000)
	ctx := context.Background()
	if _, err := h.eng.CreateGame(ctx, model.GameConfig{PlayerIDs: fivePlayerIDs(), Seed: 99}); err != nil {
		t.Fatalf("create game: %v", err)
	}

	summary, err := h.eng.SimulateToCompletion(ctx, NewRandomPolicy(123))
	if err != nil {
		t.Fatalf("simulate to completion: %v", err)
	}
	if !summary.Completed {
		t.Fatalf("expected the game to complete within the turn cap, got %+v", summary)
	}
	if len(summary.Winners) == 0 {
		t.Fatal("expected a winning side to be recorded")
	}
}

func TestLoadGameReconstructsBoundState(t *testing.T) {
	h := newHarness(500)
	ctx := context.Background()
	gameID, err := h.eng.CreateGame(ctx, model.GameConfig{PlayerIDs: fivePlayerIDs(), Seed: 5})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	fresh := New(action.New(action.DefaultConfig()), txn.New(action.New(action.DefaultConfig()), h.games, h.snapshots, h.actions, h.events, h.chat, nil), recovery.New(h.games, h.actions, h.snapshots), h.games, h.players, h.snapshots, h.events, h.chat, 500)
	if err := fresh.LoadGame(ctx, gameID, nil); err != nil {
		t.Fatalf("load game: %v", err)
	}
	if fresh.current.GameID != gameID || fresh.current.TurnNumber != 0 {
		t.Fatalf("expected loaded state to match the genesis snapshot, got %+v", fresh.current)
	}
}

func TestCheckpointReturnsExistingSnapshotID(t *testing.T) {
	h := newHarness(500)
	ctx := context.Background()
	if _, err := h.eng.CreateGame(ctx, model.GameConfig{PlayerIDs: fivePlayerIDs(), Seed: 9}); err != nil {
		t.Fatalf("create game: %v", err)
	}

	id, err := h.eng.Checkpoint(ctx)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty snapshot id")
	}
}
