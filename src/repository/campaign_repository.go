// repository/campaign_repository.go
package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"budgetpilot/src/database"
	"budgetpilot/src/model"
	"budgetpilot/src/security"
)

// CampaignRepository handles persistence for managed ad campaigns, including
// the sealed ad-account tokens used by the platform sync jobs.
type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (r *CampaignRepository) WithDB(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// FindByID fetches a campaign by its platform-scoped id.
// Returns (nil, nil) if not found.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*model.Campaign, error) {
	var campaign model.Campaign

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&campaign).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}

		logger.WithFields(map[string]interface{}{
			"repo":        "CampaignRepository",
			"op":          "FindByID",
			"campaign_id": id,
		}).WithError(err).Error("Failed to fetch campaign")

		return nil, err
	}

	return &campaign, nil
}

// UpdateBudget sets the campaign's stored daily budget. Callers performing an
// autopilot move must run this inside the execution transaction via WithDB.
func (r *CampaignRepository) UpdateBudget(
	ctx context.Context,
	campaignID string,
	newBudget decimal.Decimal,
) error {

	result := r.db.WithContext(ctx).
		Model(&model.Campaign{}).
		Where("id = ?", campaignID).
		Update("daily_budget", newBudget)

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "CampaignRepository",
			"op":          "UpdateBudget",
			"campaign_id": campaignID,
		}).WithError(result.Error).Error("Failed to update campaign budget")
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// StoreAccessToken seals and persists the ad-account access token for a campaign.
func (r *CampaignRepository) StoreAccessToken(
	ctx context.Context,
	campaignID string,
	token string,
) error {

	sealed, err := security.SealString(token)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&model.Campaign{}).
		Where("id = ?", campaignID).
		Update("access_token_sealed", sealed).Error
}

// AccessToken loads and opens the sealed ad-account token for a campaign.
// Returns ("", nil) when no token is stored.
func (r *CampaignRepository) AccessToken(ctx context.Context, campaignID string) (string, error) {
	campaign, err := r.FindByID(ctx, campaignID)
	if err != nil {
		return "", err
	}
	if campaign == nil || len(campaign.AccessTokenSealed) == 0 {
		return "", nil
	}

	return security.OpenString(campaign.AccessTokenSealed)
}
