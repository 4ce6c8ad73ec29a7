// Command seed fills an empty database with demo users, class types,
// memberships and a week of classes.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/config"
	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type classTypeSeed struct {
	name     string
	credits  int
	capacity int
	minutes  int
}

var classTypes = []classTypeSeed{
	{"Spin Express", 1, 12, 45},
	{"Power Yoga", 1, 20, 60},
	{"Reformer Pilates", 2, 8, 50},
	{"HIIT Circuit", 1, 16, 30},
}

func main() {
	password := flag.String("password", "password123", "password for every seeded user")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	var dbCfg config.Database
	if err := cleanenv.ReadEnv(&dbCfg); err != nil {
		log.Fatalf("Error loading database config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	db, err := database.Open(ctx, dbCfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	var users int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	if users > 0 {
		logger.Info("database already has users, nothing to seed", slog.Int("users", users))
		return
	}

	var pw models.Password
	if err := pw.Set(*password); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		return seed(ctx, tx, pw.Hash, time.Now().UTC())
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("seed complete")
}

func seed(ctx context.Context, tx *sql.Tx, hash string, now time.Time) error {
	insertUser := func(email, first, last, role string) (string, error) {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, email, hash, first, last, role, true, now)
		if err != nil {
			return "", fmt.Errorf("insert user %s: %w", email, err)
		}
		return id, nil
	}

	if _, err := insertUser("admin@fitstudio.local", "Ada", "Admin", "admin"); err != nil {
		return err
	}
	trainers := make([]string, 0, 2)
	for _, name := range [][2]string{{"Tara", "Trainer"}, {"Theo", "Coach"}} {
		id, err := insertUser(slug.Make(name[0])+"@fitstudio.local", name[0], name[1], "trainer")
		if err != nil {
			return err
		}
		trainers = append(trainers, id)
	}

	// Three members: one on credits, one unlimited, one nearly out.
	memberCredits := []*int{ptr(10), nil, ptr(1)}
	for i, credits := range memberCredits {
		id, err := insertUser(fmt.Sprintf("member%d@fitstudio.local", i+1), "Member", fmt.Sprint(i+1), "member")
		if err != nil {
			return err
		}
		membershipType := "10-class-pack"
		if credits == nil {
			membershipType = "unlimited-monthly"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memberships (id, user_id, membership_type_id, start_date, end_date, status, remaining_credits, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), id, membershipType, now, now.AddDate(0, 1, 0),
			models.MembershipStatusActive, credits, now); err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
	}

	typeIDs := make([]string, len(classTypes))
	for i, ct := range classTypes {
		typeIDs[i] = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO class_types (id, name, slug, duration_minutes, default_capacity, credits_required, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			typeIDs[i], ct.name, slug.Make(ct.name), ct.minutes, ct.capacity, ct.credits, true, now); err != nil {
			return fmt.Errorf("insert class type %s: %w", ct.name, err)
		}
	}

	// One morning and one evening class per day for the next week.
	day := now.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	for d := 0; d < 7; d++ {
		for slot, hour := range []int{7, 18} {
			i := (d*2 + slot) % len(classTypes)
			ct := classTypes[i]
			start := day.AddDate(0, 0, d).Add(time.Duration(hour) * time.Hour)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO classes (id, class_type_id, trainer_id, start_time, end_time, capacity, location,
					is_cancelled, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), typeIDs[i], trainers[slot], start,
				start.Add(time.Duration(ct.minutes)*time.Minute), ct.capacity, "Studio A",
				false, now, now); err != nil {
				return fmt.Errorf("insert class: %w", err)
			}
		}
	}
	return nil
}

func ptr(v int) *int { return &v }
