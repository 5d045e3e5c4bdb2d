package secret

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/botforge/botforge/internal/utils/crypto"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Resolver decrypts per-bot and per-provider credentials with the bot→global
// fallback chain.
type Resolver struct {
	repo   Repository
	secret string // symmetric encryption key
}

// NewResolver creates a secret resolver.
func NewResolver(repo Repository, encryptionSecret string) *Resolver {
	return &Resolver{repo: repo, secret: encryptionSecret}
}

// AddBotSecret encrypts and stores a named per-bot secret; (bot, name) must
// be unique among live rows.
func (r *Resolver) AddBotSecret(ctx context.Context, bot, user, name, value string) (uint, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(value) == "" {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"secret name and value cannot be empty", nil)
	}
	existing, err := r.repo.FindBotSecret(ctx, bot, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			fmt.Sprintf("secret %q already exists for bot %s", name, bot), nil)
	}
	encrypted, err := crypto.EncryptString(r.secret, value)
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConfig,
			"failed to encrypt secret", err)
	}
	row := &BotSecret{
		Bot:            bot,
		User:           user,
		Name:           strings.TrimSpace(name),
		EncryptedValue: encrypted,
		Timestamp:      time.Now().UTC(),
		Status:         true,
	}
	if err := r.repo.CreateBotSecret(ctx, row); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// GetBotSecret looks up and decrypts a per-bot secret. When absent it either
// errors or returns empty, per raiseErr.
func (r *Resolver) GetBotSecret(ctx context.Context, bot, name string, raiseErr bool) (string, error) {
	row, err := r.repo.FindBotSecret(ctx, bot, name)
	if err != nil {
		return "", err
	}
	if row == nil {
		if raiseErr {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("secret %q not configured for bot %s", name, bot), nil)
		}
		return "", nil
	}
	value, err := crypto.DecryptString(r.secret, row.EncryptedValue)
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConfig,
			"failed to decrypt secret", err)
	}
	return value, nil
}

// AddLLMSecret encrypts and stores provider credentials. An empty bot makes
// the row the global fallback for that provider.
func (r *Resolver) AddLLMSecret(ctx context.Context, bot, provider, apiKey, token, baseURL, apiVersion string) (uint, error) {
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(apiKey) == "" {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"provider and api key cannot be empty", nil)
	}
	encryptedKey, err := crypto.EncryptString(r.secret, apiKey)
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConfig,
			"failed to encrypt api key", err)
	}
	encryptedToken := ""
	if token != "" {
		encryptedToken, err = crypto.EncryptString(r.secret, token)
		if err != nil {
			return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConfig,
				"failed to encrypt token", err)
		}
	}
	row := &LLMSecret{
		Bot:             bot,
		Provider:        strings.TrimSpace(provider),
		EncryptedAPIKey: encryptedKey,
		EncryptedToken:  encryptedToken,
		APIBaseURL:      baseURL,
		APIVersion:      apiVersion,
		Timestamp:       time.Now().UTC(),
		Status:          true,
	}
	if err := r.repo.CreateLLMSecret(ctx, row); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// GetLLMSecret resolves provider credentials for a bot: the bot-scoped row
// wins, then the global row, then a configuration error. The two-step lookup
// is deliberate; absence is not exceptional.
func (r *Resolver) GetLLMSecret(ctx context.Context, provider, bot string) (*LLMCredentials, error) {
	row, err := r.repo.FindLLMSecret(ctx, bot, provider)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row, err = r.repo.FindLLMSecret(ctx, "", provider)
		if err != nil {
			return nil, err
		}
	}
	if row == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConfig,
			fmt.Sprintf("LLM secret is not configured for provider %q", provider), nil)
	}

	apiKey, err := crypto.DecryptString(r.secret, row.EncryptedAPIKey)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConfig,
			"failed to decrypt api key", err)
	}
	token := ""
	if row.EncryptedToken != "" {
		token, err = crypto.DecryptString(r.secret, row.EncryptedToken)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConfig,
				"failed to decrypt token", err)
		}
	}
	return &LLMCredentials{
		Provider:   row.Provider,
		APIKey:     apiKey,
		Token:      token,
		APIBaseURL: row.APIBaseURL,
		APIVersion: row.APIVersion,
	}, nil
}
