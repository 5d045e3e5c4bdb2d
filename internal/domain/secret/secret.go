package secret

import (
	"context"
	"time"
)

// BotSecret is a named, encrypted per-bot credential such as a gpt_key.
type BotSecret struct {
	ID             uint
	Bot            string
	User           string
	Name           string
	EncryptedValue string
	Timestamp      time.Time
	Status         bool
}

// LLMSecret holds one provider's credentials. A row with an empty Bot is the
// global fallback; bot-scoped rows override it.
type LLMSecret struct {
	ID              uint
	Bot             string
	Provider        string
	EncryptedAPIKey string
	EncryptedToken  string
	APIBaseURL      string
	APIVersion      string
	Timestamp       time.Time
	Status          bool
}

// LLMCredentials is a decrypted provider credential set.
type LLMCredentials struct {
	Provider   string
	APIKey     string
	Token      string
	APIBaseURL string
	APIVersion string
}

// Repository is the persistence contract for secrets. Values are stored
// encrypted; lookups return rows as persisted.
type Repository interface {
	CreateBotSecret(ctx context.Context, row *BotSecret) error
	FindBotSecret(ctx context.Context, bot, name string) (*BotSecret, error)
	CreateLLMSecret(ctx context.Context, row *LLMSecret) error
	// FindLLMSecret looks up the bot-scoped row; bot may be empty for the
	// global row.
	FindLLMSecret(ctx context.Context, bot, provider string) (*LLMSecret, error)
}
