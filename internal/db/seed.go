package db

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/logger"
	"github.com/oggyb/muzz-swipe/internal/quota"
)

var (
	seedNames  = []string{"Ana", "Ben", "Cara", "Dev", "Ema", "Finn", "Gia", "Hugo", "Isla", "Jay"}
	seedCities = []string{"London", "Leeds", "Bristol", "Manchester", "Glasgow"}
)

// SeedTestData resets the database and populates it with demo users,
// accounts and decisions.
//
// Behavior:
//  1. Clears existing data in `decisions`, `accounts` and `users`.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords and
//     display attributes.
//  3. Gives every user an account; tiers rotate through the catalog.
//  4. Has ~half of the users like user 1, so that demo sessions for user 1
//     produce matches.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, catalog *quota.Catalog, loc *time.Location) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := reset(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tiers := catalog.Tiers()
	today := string(quota.DayOf(time.Now(), loc))

	for i := 1; i <= 20; i++ {
		gender := "male"
		if i > 10 {
			gender = "female"
		}
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Gender:       gender,
			Active:       true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
			DisplayName:  fmt.Sprintf("%s %d", seedNames[(i-1)%len(seedNames)], i),
			Bio:          "Here for the coffee.",
			Age:          21 + r.Intn(20),
			City:         seedCities[r.Intn(len(seedCities))],
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		plan, _ := catalog.Lookup(tiers[(i-1)%len(tiers)])
		acct := Account{
			UserID:              user.ID,
			PlanTier:            plan.Tier,
			SwipeLimit:          plan.SwipeLimit,
			SuperlikesAvailable: plan.SuperlikeAllotment,
			LastResetDate:       today,
			TimeZone:            loc.String(),
		}
		if err := db.Create(&acct).Error; err != nil {
			return fmt.Errorf("failed to seed account: %w", err)
		}
	}
	logger.Info("seeded users and accounts", "count", 20)

	likes := 0
	for actorID := uint64(2); actorID <= 20; actorID++ {
		if r.Intn(100) >= 50 {
			continue
		}
		if err := seedDecision(db, actorID, 1, domain.DirectionLike); err != nil {
			return err
		}
		likes++
	}
	logger.Info("seeded decisions", "likes_for_user_1", likes)

	return nil
}

// SeedMinimalTestData inserts a small deterministic dataset:
//   - users 1 (male), 2, 3 and 4 (female); user 4 is inactive
//   - user 1 on the free tier, user 2 on plus
//   - user 2 liked user 1; user 3 passed user 1
func SeedMinimalTestData(db *gorm.DB, today quota.Day) error {
	if err := reset(db); err != nil {
		return err
	}

	users := []User{
		{ID: 1, Username: "user1", Email: "u1@test.com", PasswordHash: "x", Gender: "male", Active: true, DisplayName: "Ana", City: "Leeds", Age: 30},
		{ID: 2, Username: "user2", Email: "u2@test.com", PasswordHash: "x", Gender: "female", Active: true, DisplayName: "Ben", City: "London", Age: 28},
		{ID: 3, Username: "user3", Email: "u3@test.com", PasswordHash: "x", Gender: "female", Active: true, DisplayName: "Cara", City: "Bristol", Age: 25},
		{ID: 4, Username: "user4", Email: "u4@test.com", PasswordHash: "x", Gender: "female", Active: true, DisplayName: "Dev", City: "Leeds", Age: 33},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}
	// gorm skips zero-value bools that carry a default on Create
	if err := db.Model(&User{}).Where("id = ?", 4).Update("active", false).Error; err != nil {
		return err
	}

	accounts := []Account{
		{UserID: 1, PlanTier: "free", SwipeLimit: 50, SuperlikesAvailable: 1, LastResetDate: string(today), TimeZone: "UTC"},
		{UserID: 2, PlanTier: "plus", SwipeLimit: quota.Unlimited, SuperlikesAvailable: 5, LastResetDate: string(today), TimeZone: "UTC"},
	}
	if err := db.Create(&accounts).Error; err != nil {
		return err
	}

	if err := seedDecision(db, 2, 1, domain.DirectionLike); err != nil {
		return err
	}
	return seedDecision(db, 3, 1, domain.DirectionPass)
}

func seedDecision(db *gorm.DB, actorID, recipientID uint64, d domain.Direction) error {
	decision := Decision{
		ActorID:     actorID,
		RecipientID: recipientID,
		Direction:   string(d),
		Liked:       d.Liked(),
		IdempotencyKey: domain.IdempotencyKey(
			strconv.FormatUint(actorID, 10), strconv.FormatUint(recipientID, 10), d),
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&decision).Error
	if err != nil {
		return fmt.Errorf("failed to seed decision: %w", err)
	}
	return nil
}

func reset(db *gorm.DB) error {
	for _, table := range []string{"decisions", "accounts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}
	return nil
}
