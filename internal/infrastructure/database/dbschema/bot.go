package dbschema

import (
	"time"

	"github.com/botforge/botforge/internal/domain/bot"
	"github.com/botforge/botforge/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Bot{})
}

// Bot is the account-level schema row. Name is the bot identifier used as
// the Bot column everywhere else.
type Bot struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Account   string    `gorm:"type:varchar(128)"`
	User      string    `gorm:"type:varchar(128);not null"`
	IsBilled  bool      `gorm:"not null;default:false;index"`
	Timestamp time.Time `gorm:"not null"`
	Status    bool      `gorm:"not null;default:true;index"`
}

func NewSchemaBot(d *bot.Bot) *Bot {
	return &Bot{
		ID:        d.ID,
		Name:      d.Name,
		Account:   d.Account,
		User:      d.User,
		IsBilled:  d.IsBilled,
		Timestamp: d.Timestamp,
		Status:    d.Status,
	}
}

func (m *Bot) EtoD() bot.Bot {
	return bot.Bot{
		ID:        m.ID,
		Name:      m.Name,
		Account:   m.Account,
		User:      m.User,
		IsBilled:  m.IsBilled,
		Timestamp: m.Timestamp,
		Status:    m.Status,
	}
}
