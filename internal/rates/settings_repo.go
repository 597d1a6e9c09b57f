package rates

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
)

// SettingsRepository reads the administrator rate configuration row.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository binds the repository to the provided DB handle.
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads the singleton settings row. A missing row is not an error; the
// resolver simply moves on to the provider rung.
func (r *SettingsRepository) Get(ctx context.Context) (*models.RateSetting, error) {
	var setting models.RateSetting
	err := r.db.WithContext(ctx).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}
