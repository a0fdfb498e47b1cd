package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

const (
	rankingCacheKey = "ranking:leaderboard"
	rankingCacheTTL = 30 * time.Second
)

// RankingController serves the leaderboard. With a Redis client configured
// the serialized board is cached for a short while; without one every
// request hits the database.
type RankingController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Redis *redis.Client
}

func NewRankingController(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *RankingController {
	return &RankingController{DB: db, Cfg: cfg, Redis: redisClient}
}

type rankingEntry struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Ranking  int    `json:"ranking"`
}

// GetRanking returns all users ordered by their ranking score, best first.
func (rc *RankingController) GetRanking(c *fiber.Ctx) error {
	if rc.Redis != nil {
		cached, err := rc.Redis.Get(context.Background(), rankingCacheKey).Result()
		if err == nil {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(cached)
		}
	}

	var entries []rankingEntry
	err := rc.DB.Model(&models.Profile{}).
		Select("profiles.user_id, users.username, profiles.ranking").
		Joins("JOIN users ON users.id = profiles.user_id").
		Order("profiles.ranking DESC").
		Scan(&entries).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	if rc.Redis != nil {
		if payload, err := json.Marshal(entries); err == nil {
			rc.Redis.Set(context.Background(), rankingCacheKey, payload, rankingCacheTTL)
		}
	}
	return c.JSON(entries)
}
