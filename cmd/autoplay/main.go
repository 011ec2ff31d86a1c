// Command autoplay plays Memory Match through the REST API with a
// perfect-memory strategy. It is handy for smoke-testing a running server and
// for watching a game unfold in the browser or over WebSocket.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

var log = logrus.New()

// GameResult summarizes one finished (or abandoned) game
type GameResult struct {
	Moves    int
	Reveals  int
	Complete bool
}

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "play Memory Match games against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "difficulty tier (easy, medium, hard)"},
			&cli.StringFlag{Name: "continue", Usage: "resume playing an existing session by ID"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "games to play"},
			&cli.IntFlag{Name: "max-reveals", Value: 1000, Usage: "give up a game after this many reveals"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between reveals"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Fatal("autoplay failed")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("v") {
		log.SetLevel(logrus.DebugLevel)
	}

	log.Infof("Connecting to game server at %s", cmd.String("url"))
	client := NewClient(cmd.String("url"))

	var state *engine.GameState
	var err error
	if id := cmd.String("continue"); id != "" {
		client.sessionID = id
		state, err = client.GetState()
		if err != nil {
			return fmt.Errorf("resume session %s: %w", id, err)
		}
		log.WithField("session", id).Info("Session resumed")
	} else {
		state, err = client.CreateSession(cmd.String("config"))
		if err != nil {
			return err
		}
		log.WithField("session", client.sessionID).Infof("Session created: %d pairs", state.TotalPairs)
	}

	games := cmd.Int("games")
	for i := 1; i <= games; i++ {
		if i > 1 || state.Complete {
			if state, err = client.NewGame(); err != nil {
				return err
			}
		}

		result, err := playGame(ctx, client, state, cmd.Int("max-reveals"), cmd.Duration("delay"))
		if err != nil {
			return err
		}
		if !result.Complete {
			return fmt.Errorf("game %d not finished after %d reveals", i, result.Reveals)
		}
		log.WithFields(logrus.Fields{
			"session": client.sessionID,
			"moves":   result.Moves,
			"reveals": result.Reveals,
		}).Infof("🎉 Game %d/%d won", i, games)
	}
	return nil
}

// playGame reveals cards until the board is cleared or maxReveals is reached
func playGame(ctx context.Context, client *Client, state *engine.GameState, maxReveals int, delay time.Duration) (GameResult, error) {
	strategy := NewMemoryStrategy()
	strategy.Observe(state)

	result := GameResult{}
	for !state.Complete && result.Reveals < maxReveals {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if state.Phase == engine.PhaseAwaitingMismatchReset {
			resolved, err := client.Resolve(state.GameID)
			if err != nil {
				return result, err
			}
			state = resolved.GameState
			continue
		}

		id := strategy.NextReveal(state)
		if id < 0 {
			return result, fmt.Errorf("no card left to reveal on an unfinished board")
		}

		revealed, err := client.Reveal(id)
		if err != nil {
			return result, err
		}
		result.Reveals++
		state = revealed.GameState
		strategy.Observe(state)

		log.WithFields(logrus.Fields{
			"card":    id,
			"outcome": revealed.Outcome,
			"pairs":   fmt.Sprintf("%d/%d", state.MatchedPairs, state.TotalPairs),
		}).Debug("Revealed")

		if delay > 0 {
			time.Sleep(delay)
		}
	}

	result.Moves = state.Moves
	result.Complete = state.Complete
	return result, nil
}
