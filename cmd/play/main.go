package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
	"landlord-rl/internal/model"
	"landlord-rl/internal/training"
)

// policy picks one of the legal moves for the seat to play.
type policy func(env *game.Env, legal []game.Move) game.Move

func main() {
	seed := flag.Int64("seed", 0, "RNG seed (0 for time-based)")
	checkpointPath := flag.String("checkpoint", "", "Play greedily from a trained checkpoint instead of randomly")
	objective := flag.String("objective", "winloss", "Objective the checkpoint was trained with")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	pick := randomPolicy(rng)
	if *checkpointPath != "" {
		cp, err := training.LoadCheckpoint(*checkpointPath, *objective)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load checkpoint")
		}
		pick = greedyPolicy(cp)
		log.Info().Str("path", *checkpointPath).Msg("Playing greedily from checkpoint")
	}

	env := game.NewEnv(rng)
	fmt.Printf("seed: %d\n", *seed)
	for _, role := range game.Roles() {
		fmt.Printf("%-12s %s\n", role, env.Observe(role).Hand)
	}
	fmt.Println()

	for !env.Done() {
		role := env.Turn()
		legal := env.LegalMoves()
		move := pick(env, legal)
		if _, _, err := env.Step(move); err != nil {
			log.Fatal().Err(err).Msg("Illegal move from policy")
		}
		fmt.Printf("%-12s %s\n", role, move)
	}

	result := env.Result()
	fmt.Println()
	if result.Winner == game.LandlordSide {
		fmt.Printf("landlord wins (%d bombs)\n", result.Bombs)
	} else {
		fmt.Printf("peasants win (%d bombs)\n", result.Bombs)
	}
}

func randomPolicy(rng *rand.Rand) policy {
	return func(env *game.Env, legal []game.Move) game.Move {
		return legal[rng.Intn(len(legal))]
	}
}

// greedyPolicy scores every legal move with the seat's trained parameters
// and plays the argmax.
func greedyPolicy(cp *training.Checkpoint) policy {
	var params [game.NumRoles]model.Params
	for _, role := range game.Roles() {
		params[role] = cp.RoleState(role).Params
	}
	return func(env *game.Env, legal []game.Move) game.Move {
		role := env.Turn()
		obs := env.Observe(role)
		state := experience.EncodeState(obs)
		best := 0
		bestScore := float32(0)
		for i, m := range legal {
			score := model.Score(params[role], state, experience.EncodeAction(m))
			if i == 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
		return legal[best]
	}
}
