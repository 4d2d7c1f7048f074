package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func GetApiConfigs(db *gorm.DB, userId string) ([]ApiConfig, error) {
	var configs []ApiConfig
	err := db.Where("user_id = ?", userId).Order("provider ASC").Find(&configs).Error
	return configs, err
}

func GetApiConfig(db *gorm.DB, userId, provider string) (ApiConfig, error) {
	var config ApiConfig
	err := db.First(&config, "user_id = ? AND provider = ?", userId, provider).Error
	return config, err
}

// SaveApiConfig upserts the config for a (user, provider) pair. One config
// per provider per user.
func SaveApiConfig(db *gorm.DB, config *ApiConfig) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if config.Id == uuid.Nil {
		config.Id = uuid.New()
	}
	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"endpoint", "api_key", "model", "api_version", "updated_at",
		}),
	}).Create(config).Error
}

func DeleteApiConfig(db *gorm.DB, configId uuid.UUID) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Delete(&ApiConfig{}, "id = ?", configId).Error
}
