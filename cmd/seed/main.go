package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/gamerchallenges/api/internal/config"
	"github.com/gamerchallenges/api/internal/database"
	"github.com/gamerchallenges/api/internal/repository"
	"github.com/gamerchallenges/api/internal/utils"
)

// gamesEndpoint serves a public catalogue of free-to-play games; only the
// title and thumbnail are kept.
const gamesEndpoint = "https://www.freetogame.com/api/games"

const demoPassword = "Sup3rS3cret!pass"

type remoteGame struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

type demoUser struct {
	pseudo string
	email  string
	admin  bool
}

var demoUsers = []demoUser{
	{pseudo: "ValorGM", email: "valor.gm@example.com", admin: true},
	{pseudo: "PixelWarden", email: "pixel.warden@example.com", admin: true},
	{pseudo: "NovaRunner", email: "nova.runner@example.com"},
	{pseudo: "GhostFrag", email: "ghost.frag@example.com"},
	{pseudo: "LootGoblin", email: "loot.goblin@example.com"},
	{pseudo: "SpeedSiren", email: "speed.siren@example.com"},
}

type demoChallenge struct {
	title       string
	description string
	rules       string
}

var demoChallenges = []demoChallenge{
	{
		title:       "No-hit first boss",
		description: "Beat the first boss of the game without taking a single point of damage.",
		rules:       "Fresh save file, no damage taken from the start of the fight. Post the full uncut attempt.",
	},
	{
		title:       "Pistol only run",
		description: "Finish the opening chapter using nothing but the starting pistol.",
		rules:       "No other weapons picked up, melee allowed. Difficulty normal or above.",
	},
	{
		title:       "Sub 20 minute clear",
		description: "Speedrun the tutorial island in under twenty minutes, any route allowed.",
		rules:       "Timer starts on first input, ends on the island exit cutscene. Glitches allowed, mods are not.",
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	games := repository.NewGameRepo(db)
	users := repository.NewUserRepo(db)
	challenges := repository.NewChallengeRepo(db)
	entries := repository.NewEntryRepo(db)

	if err := seedGames(ctx, games); err != nil {
		log.Fatalf("seed games: %v", err)
	}
	userIDs, err := seedUsers(ctx, users)
	if err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedChallenges(ctx, games, challenges, entries, userIDs); err != nil {
		log.Fatalf("seed challenges: %v", err)
	}
	log.Println("seed complete")
}

// seedGames pulls the public catalogue and upserts every title. INSERT IGNORE
// on the unique title keeps reruns harmless.
func seedGames(ctx context.Context, repo *repository.GameRepo) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gamesEndpoint, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalogue responded %d", resp.StatusCode)
	}

	var remote []remoteGame
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return err
	}
	for _, g := range remote {
		if g.Title == "" {
			continue
		}
		if err := repo.Upsert(ctx, g.Title, g.Thumbnail); err != nil {
			return err
		}
	}
	log.Printf("games: %d titles processed", len(remote))
	return nil
}

// seedUsers creates the demo accounts, skipping any pseudo or email already
// present. All accounts share the same known password.
func seedUsers(ctx context.Context, repo *repository.UserRepo) ([]int64, error) {
	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for i, du := range demoUsers {
		emailTaken, pseudoTaken, err := repo.FindConflicts(ctx, du.email, du.pseudo)
		if err != nil {
			return nil, err
		}
		if emailTaken || pseudoTaken {
			u, err := repo.GetByEmail(ctx, du.email)
			if err == nil {
				ids = append(ids, u.ID)
			}
			continue
		}
		avatar := fmt.Sprintf("https://i.pravatar.cc/150?img=%d", i+10)
		id, err := repo.Create(ctx, du.pseudo, du.email, hash, avatar)
		if err != nil {
			return nil, err
		}
		if du.admin {
			if _, err := repo.DB.ExecContext(ctx, `UPDATE users SET role = 'admin' WHERE user_id = ?`, id); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	log.Printf("users: %d accounts available", len(ids))
	return ids, nil
}

// seedChallenges attaches a handful of challenges to the first seeded games
// and one entry per challenge. Skipped entirely once any challenge exists.
func seedChallenges(ctx context.Context, games *repository.GameRepo, challenges *repository.ChallengeRepo, entries *repository.EntryRepo, userIDs []int64) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("no seed users available")
	}
	_, total, err := challenges.ListPage(ctx, 1, 1)
	if err != nil {
		return err
	}
	if total > 0 {
		log.Println("challenges: already seeded, skipping")
		return nil
	}

	list, err := games.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no games to attach challenges to")
	}

	for i, dc := range demoChallenges {
		game := list[i%len(list)]
		author := userIDs[i%len(userIDs)]
		chID, err := challenges.Create(ctx, dc.title, dc.description, dc.rules, game.ID, author)
		if err != nil {
			return err
		}
		poster := userIDs[(i+1)%len(userIDs)]
		title := fmt.Sprintf("My attempt at %s", dc.title)
		videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=demo%02d", i+1)
		if _, err := entries.Create(ctx, title, videoURL, chID, poster); err != nil {
			return err
		}
	}
	log.Printf("challenges: %d created with one entry each", len(demoChallenges))
	return nil
}
