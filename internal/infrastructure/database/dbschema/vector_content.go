package dbschema

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/botforge/botforge/internal/domain/rag"
	"github.com/botforge/botforge/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(VectorContent{})
}

// VectorContent is the database schema for indexable RAG content; the data
// payload and metadata field list are JSON columns.
type VectorContent struct {
	ID          uint           `gorm:"primaryKey"`
	Bot         string         `gorm:"type:varchar(64);not null;index"`
	User        string         `gorm:"type:varchar(128);not null"`
	Collection  string         `gorm:"type:varchar(128);index"`
	ContentType string         `gorm:"type:varchar(10);not null"`
	Data        datatypes.JSON `gorm:"type:jsonb;not null"`
	VectorID    string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
}

func NewSchemaVectorContent(d *rag.VectorContent) (*VectorContent, error) {
	data, err := json.Marshal(d.Data)
	if err != nil {
		return nil, err
	}
	row := &VectorContent{
		ID:          d.ID,
		Bot:         d.Bot,
		User:        d.User,
		Collection:  d.Collection,
		ContentType: string(d.ContentType),
		Data:        data,
		VectorID:    d.VectorID,
	}
	if len(d.Metadata) > 0 {
		metadata, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, err
		}
		row.Metadata = metadata
	}
	return row, nil
}

func (m *VectorContent) EtoD() rag.VectorContent {
	content := rag.VectorContent{
		ID:          m.ID,
		Bot:         m.Bot,
		User:        m.User,
		Collection:  m.Collection,
		ContentType: rag.ContentType(m.ContentType),
		VectorID:    m.VectorID,
	}
	_ = json.Unmarshal(m.Data, &content.Data)
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &content.Metadata)
	}
	return content
}
