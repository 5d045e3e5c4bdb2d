package dbschema

import (
	"time"

	"github.com/botforge/botforge/internal/domain/secret"
	"github.com/botforge/botforge/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(BotSecret{}, LLMSecret{})
}

// BotSecret is the database schema for named per-bot credentials. Values
// arrive already encrypted from the resolver.
type BotSecret struct {
	ID             uint      `gorm:"primaryKey"`
	Bot            string    `gorm:"type:varchar(64);not null;index"`
	User           string    `gorm:"type:varchar(128);not null"`
	Name           string    `gorm:"type:varchar(128);not null;index"`
	EncryptedValue string    `gorm:"type:text;not null"`
	Timestamp      time.Time `gorm:"not null"`
	Status         bool      `gorm:"not null;default:true;index"`
}

func NewSchemaBotSecret(d *secret.BotSecret) *BotSecret {
	return &BotSecret{
		ID:             d.ID,
		Bot:            d.Bot,
		User:           d.User,
		Name:           d.Name,
		EncryptedValue: d.EncryptedValue,
		Timestamp:      d.Timestamp,
		Status:         d.Status,
	}
}

func (m *BotSecret) EtoD() secret.BotSecret {
	return secret.BotSecret{
		ID:             m.ID,
		Bot:            m.Bot,
		User:           m.User,
		Name:           m.Name,
		EncryptedValue: m.EncryptedValue,
		Timestamp:      m.Timestamp,
		Status:         m.Status,
	}
}

// LLMSecret is the database schema for provider credentials. An empty Bot
// marks the global fallback row.
type LLMSecret struct {
	ID              uint      `gorm:"primaryKey"`
	Bot             string    `gorm:"type:varchar(64);index"`
	Provider        string    `gorm:"type:varchar(64);not null;index"`
	EncryptedAPIKey string    `gorm:"type:text;not null"`
	EncryptedToken  string    `gorm:"type:text"`
	APIBaseURL      string    `gorm:"type:varchar(512)"`
	APIVersion      string    `gorm:"type:varchar(32)"`
	Timestamp       time.Time `gorm:"not null"`
	Status          bool      `gorm:"not null;default:true;index"`
}

func NewSchemaLLMSecret(d *secret.LLMSecret) *LLMSecret {
	return &LLMSecret{
		ID:              d.ID,
		Bot:             d.Bot,
		Provider:        d.Provider,
		EncryptedAPIKey: d.EncryptedAPIKey,
		EncryptedToken:  d.EncryptedToken,
		APIBaseURL:      d.APIBaseURL,
		APIVersion:      d.APIVersion,
		Timestamp:       d.Timestamp,
		Status:          d.Status,
	}
}

func (m *LLMSecret) EtoD() secret.LLMSecret {
	return secret.LLMSecret{
		ID:              m.ID,
		Bot:             m.Bot,
		Provider:        m.Provider,
		EncryptedAPIKey: m.EncryptedAPIKey,
		EncryptedToken:  m.EncryptedToken,
		APIBaseURL:      m.APIBaseURL,
		APIVersion:      m.APIVersion,
		Timestamp:       m.Timestamp,
		Status:          m.Status,
	}
}
