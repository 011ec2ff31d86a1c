// Command analyze prints quick, human-readable statistics about the difficulty
// tiers in a config directory: board shape, face pool coverage, and the move
// counts a player with perfect memory needs, measured over simulated games.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// TierStats summarizes one tier
type TierStats struct {
	ConfigID     string
	Name         string
	Cards        int
	Columns      int
	Rows         int
	PoolCoverage float64 // share of the face pool used per deal
	Games        int
	MinMoves     int
	MaxMoves     int
	AvgMoves     float64
	MovesPerPair float64
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Print tier statistics and perfect-memory move counts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory holding tier JSON files"},
			&cli.IntFlag{Name: "games", Value: 200, Usage: "simulated games per tier"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "random seed for dealing"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(os.Stdout, cmd.String("config-dir"), cmd.Int("games"), cmd.Uint64("seed"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(w io.Writer, dir string, games int, seed uint64) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tier files in %s", dir)
	}
	sort.Strings(files)

	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), ".json")
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))

		config, err := engine.LoadGameConfig(file)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}

		stats, err := analyzeTier(id, config, games, seed)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		printStats(w, stats)
	}
	return nil
}

func printStats(w io.Writer, s TierStats) {
	fmt.Fprintf(w, "Name: %s\n", s.Name)
	fmt.Fprintf(w, "Board: %d cards, %d x %d\n", s.Cards, s.Columns, s.Rows)
	fmt.Fprintf(w, "Pool coverage: %.0f%%\n", s.PoolCoverage*100)
	if s.Games == 0 {
		return
	}
	fmt.Fprintf(w, "Perfect memory over %d games: avg %.1f moves (min %d, max %d), %.2f moves per pair\n",
		s.Games, s.AvgMoves, s.MinMoves, s.MaxMoves, s.MovesPerPair)
}

// analyzeTier computes board statistics and simulates games with a perfect-memory player
func analyzeTier(id string, config *engine.GameConfig, games int, seed uint64) (TierStats, error) {
	cards := config.PairCount * 2
	stats := TierStats{
		ConfigID:     id,
		Name:         config.Name,
		Cards:        cards,
		Columns:      config.Columns,
		Rows:         (cards + config.Columns - 1) / config.Columns,
		PoolCoverage: float64(config.PairCount) / float64(config.FaceKeyPoolSize),
	}

	rng := rand.New(rand.NewPCG(seed, uint64(len(id))))
	total := 0
	for i := 0; i < games; i++ {
		eng, err := engine.NewEngine(config, engine.WithRandomSource(rng))
		if err != nil {
			return stats, err
		}
		if err := checkDeal(eng.GetCards()); err != nil {
			return stats, err
		}
		moves, err := playPerfectMemory(eng)
		if err != nil {
			return stats, err
		}

		if stats.Games == 0 || moves < stats.MinMoves {
			stats.MinMoves = moves
		}
		if moves > stats.MaxMoves {
			stats.MaxMoves = moves
		}
		total += moves
		stats.Games++
	}

	if stats.Games > 0 {
		stats.AvgMoves = float64(total) / float64(stats.Games)
		stats.MovesPerPair = stats.AvgMoves / float64(config.PairCount)
	}
	return stats, nil
}

// playPerfectMemory plays one game to completion. The player remembers every
// face it has seen, takes a known pair when one exists, otherwise flips an
// unseen card and pairs it with its twin if that face was seen before.
func playPerfectMemory(eng *engine.GameEngine) (int, error) {
	deck := eng.GetCards()
	cards := len(deck)
	faces := make(map[int]int, cards) // card id -> face key; board order is not id order
	for _, card := range deck {
		faces[card.ID] = card.FaceKey
	}
	seen := make(map[int][]int) // face key -> seen unmatched card ids
	known := make([]bool, cards)
	next := 0

	flip := func(id int) (engine.Outcome, int) {
		outcome := eng.RevealCard(id)
		face := faces[id]
		if !known[id] {
			known[id] = true
			seen[face] = append(seen[face], id)
		}
		return outcome, face
	}
	unseen := func() int {
		for next < cards && known[next] {
			next++
		}
		return next
	}

	for limit := cards * cards; !eng.IsComplete(); limit-- {
		if limit == 0 {
			return 0, fmt.Errorf("simulation did not finish")
		}

		if a, b, ok := knownPair(seen); ok {
			flip(a)
			flip(b)
			delete(seen, faces[a])
			continue
		}

		first := unseen()
		if first >= cards {
			return 0, fmt.Errorf("no unseen cards left on an unfinished board")
		}
		_, face := flip(first)

		if ids := seen[face]; len(ids) == 2 {
			flip(ids[0])
			delete(seen, face)
			continue
		}

		second := unseen()
		if second >= cards {
			return 0, fmt.Errorf("no card left to pair with %d", first)
		}
		outcome, secondFace := flip(second)
		switch outcome {
		case engine.OutcomeMatch, engine.OutcomeVictory:
			delete(seen, secondFace)
		case engine.OutcomeMismatch:
			eng.ResolveMismatch()
		}
	}

	return eng.GetMoves(), nil
}

// checkDeal confirms every face key sits on exactly two cards
func checkDeal(cards []engine.Card) error {
	for face, n := range engine.CountFaceKeys(cards) {
		if n != 2 {
			return fmt.Errorf("face %d dealt %d times", face, n)
		}
	}
	return nil
}

// knownPair returns two seen, unmatched cards sharing a face
func knownPair(seen map[int][]int) (int, int, bool) {
	for _, ids := range seen {
		if len(ids) == 2 {
			return ids[0], ids[1], true
		}
	}
	return 0, 0, false
}
