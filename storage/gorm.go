package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/postfeed/models"
)

// Gorm stores keys as rows of the overlay_entries table.
type Gorm struct {
	db        *gorm.DB
	namespace string
}

// NewGorm wraps a migrated database handle.
func NewGorm(db *gorm.DB, namespace string) *Gorm {
	return &Gorm{db: db, namespace: namespace}
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.OverlayEntry
	err := g.db.WithContext(ctx).Where("entry_key = ?", namespaced(g.namespace, key)).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (g *Gorm) Set(ctx context.Context, key string, value []byte) error {
	entry := models.OverlayEntry{Key: namespaced(g.namespace, key), Value: value}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (g *Gorm) Remove(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Where("entry_key = ?", namespaced(g.namespace, key)).Delete(&models.OverlayEntry{}).Error
}

func (g *Gorm) Clear(ctx context.Context) error {
	prefix := namespacePrefix(g.namespace)
	if prefix == "" {
		return g.db.WithContext(ctx).Where("1 = 1").Delete(&models.OverlayEntry{}).Error
	}
	return g.db.WithContext(ctx).Where("entry_key LIKE ?", escapeLike(prefix)+"%").Delete(&models.OverlayEntry{}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
