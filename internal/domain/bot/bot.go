package bot

import (
	"context"
	"time"
)

// Bot is the account-level record for a bot: who owns it and whether it is
// on a paid plan. The billing flag drives agent cache eviction priority.
type Bot struct {
	ID        uint
	Name      string
	Account   string
	User      string
	IsBilled  bool
	Timestamp time.Time
	Status    bool
}

// Repository is the persistence contract for bot accounts.
type Repository interface {
	Create(ctx context.Context, row *Bot) error
	FindByName(ctx context.Context, name string) (*Bot, error)
	SetBilled(ctx context.Context, name string, billed bool) error
}

// Service exposes account lookups used by the rest of the platform.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// IsBilled satisfies the agent cache's billing check. Unknown bots are
// reported as unbilled rather than failing the lookup.
func (s *Service) IsBilled(ctx context.Context, name string) (bool, error) {
	row, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}
	return row.IsBilled, nil
}
