package dbschema

import (
	"time"

	"github.com/botforge/botforge/internal/domain/training"
	"github.com/botforge/botforge/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(TrainingRun{})
}

// TrainingRun is the database schema for training attempts. The row created
// as IN_PROGRESS is the same row that receives the terminal state.
type TrainingRun struct {
	ID        uint       `gorm:"primaryKey"`
	Bot       string     `gorm:"type:varchar(64);not null;index"`
	User      string     `gorm:"type:varchar(128);not null"`
	Status    string     `gorm:"type:varchar(20);not null;index"`
	StartTS   time.Time  `gorm:"not null;index"`
	EndTS     *time.Time `gorm:"type:timestamp"`
	ModelPath string     `gorm:"type:varchar(512)"`
	Exception string     `gorm:"type:text"`
}

func NewSchemaTrainingRun(d *training.Run) *TrainingRun {
	return &TrainingRun{
		ID:        d.ID,
		Bot:       d.Bot,
		User:      d.User,
		Status:    string(d.Status),
		StartTS:   d.StartTS,
		EndTS:     d.EndTS,
		ModelPath: d.ModelPath,
		Exception: d.Exception,
	}
}

func (m *TrainingRun) EtoD() training.Run {
	return training.Run{
		ID:        m.ID,
		Bot:       m.Bot,
		User:      m.User,
		Status:    training.Status(m.Status),
		StartTS:   m.StartTS,
		EndTS:     m.EndTS,
		ModelPath: m.ModelPath,
		Exception: m.Exception,
	}
}
