package versions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Chat struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId    string `gorm:"index;not null"`
	SessionId string `gorm:"index"`

	Title     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Messages []ChatMessage `gorm:"foreignKey:ChatId;constraint:OnDelete:CASCADE"`
}

type ChatMessage struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatId uuid.UUID `gorm:"type:uuid;index;not null"`

	Role    string `gorm:"size:20;not null"`
	Content string

	Metadata datatypes.JSON

	CreatedAt time.Time
}

type Document struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId string `gorm:"index;not null"`

	FileName    string `gorm:"not null"`
	FileType    string `gorm:"size:20"`
	SizeBytes   int64
	StoragePath string

	Status string `gorm:"size:20;not null"`
	Error  sql.NullString

	WordCount  int `gorm:"default:0"`
	ChunkCount int `gorm:"default:0"`

	UploadTime    time.Time
	ProcessedTime sql.NullTime
}

type ApiConfig struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId   string `gorm:"not null;uniqueIndex:idx_api_configs_user_provider"`
	Provider string `gorm:"size:50;not null;uniqueIndex:idx_api_configs_user_provider"`

	Endpoint   string
	ApiKey     string `gorm:"not null"`
	Model      string
	ApiVersion string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func Migration0(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Chat{}, &ChatMessage{}, &Document{}, &ApiConfig{},
	)
	if err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
