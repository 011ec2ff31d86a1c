package websocket

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// Client action names
const (
	ActionReveal  = "reveal"
	ActionResolve = "resolve"
	ActionNewGame = "new_game"
	ActionState   = "state"
)

// ServiceActions routes client actions to the game service. Mutations reach
// every client of the session through the service's state listener; the
// state action re-broadcasts the current snapshot.
func (h *Hub) ServiceActions(svc service.GameService) ActionFunc {
	return func(ctx context.Context, sessionID string, action ClientAction) error {
		switch action.Action {
		case ActionReveal:
			_, err := svc.Reveal(ctx, sessionID, action.CardID)
			return err
		case ActionResolve:
			_, err := svc.ResolveMismatch(ctx, sessionID, action.GameID)
			return err
		case ActionNewGame:
			_, err := svc.NewGame(ctx, sessionID, action.Config)
			return err
		case ActionState:
			state, err := svc.GetGameState(ctx, sessionID)
			if err != nil {
				return err
			}
			h.BroadcastToSession(sessionID, state)
			return nil
		default:
			return fmt.Errorf("unknown action %q", action.Action)
		}
	}
}

var _ service.StateListener = (*Hub)(nil)
