package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/travelfeed/config"
	"github.com/d60-Lab/travelfeed/internal/api/middleware"
	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/model"
	"github.com/d60-Lab/travelfeed/internal/repository"
	"github.com/d60-Lab/travelfeed/pkg/database"
	"github.com/d60-Lab/travelfeed/pkg/logger"
)

var places = map[string][]string{
	"Japan":    {"Tokyo", "Kyoto", "Osaka"},
	"Italy":    {"Rome", "Florence", "Venice"},
	"Portugal": {"Lisbon", "Porto"},
	"Mexico":   {"Mexico City", "Oaxaca"},
}

var categories = []domain.SpotCategory{
	domain.CategoryRestaurant, domain.CategoryCafe, domain.CategoryBar, domain.CategoryMuseum,
	domain.CategoryPark, domain.CategoryLandmark, domain.CategoryShopping, domain.CategoryNightlife,
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())
	_ = logger.Init(cfg.Log.Level, "console")
	defer logger.Sync()
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	users := envInt("USERS", 200)
	perUser := envInt("EVENTS", 20)
	follows := envInt("FOLLOWS", 30)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	hash := must(bcrypt.GenerateFromPassword([]byte("travel123"), bcrypt.DefaultCost))

	regions, spots := seedPlaces(db, rnd)
	ids := make([]string, users)
	rows := make([]model.User, users)
	for i := range rows {
		ids[i] = uuid.New().String()
		rows[i] = model.User{
			ID:          ids[i],
			Username:    fmt.Sprintf("traveler%04d", i),
			DisplayName: fmt.Sprintf("Traveler %d", i),
			Email:       fmt.Sprintf("traveler%04d@example.com", i),
			Password:    string(hash),
			IsFeatured:  i%25 == 0,
		}
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error; err != nil {
		logger.Fatal("seed users", zap.Error(err))
	}

	followRepo := repository.NewFollowRepository(db)
	for _, uid := range ids {
		for j := 0; j < follows; j++ {
			to := ids[rnd.Intn(len(ids))]
			if to != uid {
				_ = followRepo.Create(ctx, uid, to)
			}
		}
	}

	var ratings []model.CityRating
	var reviews []model.SpotReview
	now := time.Now()
	for _, uid := range ids {
		for j := 0; j < perUser; j++ {
			at := now.Add(-time.Duration(rnd.Intn(90*24*60)) * time.Minute)
			if rnd.Intn(2) == 0 {
				ratings = append(ratings, model.CityRating{
					ID: uuid.New().String(), UserID: uid, RegionID: regions[rnd.Intn(len(regions))],
					Rating: float64(1+rnd.Intn(9)) / 2, CreatedAt: at,
				})
				continue
			}
			comment := fmt.Sprintf("visit #%d, would go again", j)
			reviews = append(reviews, model.SpotReview{
				ID: uuid.New().String(), UserID: uid, SpotID: spots[rnd.Intn(len(spots))],
				Rating: float64(1 + rnd.Intn(5)), Comment: &comment, CreatedAt: at,
			})
		}
	}
	if err := db.CreateInBatches(ratings, 500).Error; err != nil {
		logger.Fatal("seed city ratings", zap.Error(err))
	}
	if err := db.CreateInBatches(reviews, 500).Error; err != nil {
		logger.Fatal("seed spot reviews", zap.Error(err))
	}

	logger.Info("seed done",
		zap.Int("users", users), zap.Int("city_ratings", len(ratings)), zap.Int("spot_reviews", len(reviews)))
	if cfg.JWT.Secret != "" {
		tok, err := middleware.IssueToken(cfg.JWT.Secret, cfg.JWT.Issuer, ids[0], 24*time.Hour)
		if err == nil {
			fmt.Printf("demo user %s (password travel123)\ntoken: %s\n", rows[0].Username, tok)
		}
	}
}

func seedPlaces(db *gorm.DB, rnd *rand.Rand) (regionIDs, spotIDs []string) {
	for country, cities := range places {
		c := model.Country{ID: uuid.New().String(), Name: country}
		if err := db.Create(&c).Error; err != nil {
			logger.Fatal("seed country", zap.Error(err))
		}
		for _, city := range cities {
			r := model.Region{ID: uuid.New().String(), CountryID: c.ID, Name: city}
			if err := db.Create(&r).Error; err != nil {
				logger.Fatal("seed region", zap.Error(err))
			}
			regionIDs = append(regionIDs, r.ID)
			for k := 0; k < 5; k++ {
				cat := categories[rnd.Intn(len(categories))]
				s := model.Spot{
					ID: uuid.New().String(), RegionID: r.ID,
					Name:      fmt.Sprintf("%s %s %d", city, cat, k+1),
					Category:  string(cat),
					AvgRating: float64(20+rnd.Intn(31)) / 10,
				}
				if err := db.Create(&s).Error; err != nil {
					logger.Fatal("seed spot", zap.Error(err))
				}
				spotIDs = append(spotIDs, s.ID)
			}
		}
	}
	return regionIDs, spotIDs
}
