package database

import (
	"encoding/json"
	"log"

	"campaign-console/internal/models"

	"gorm.io/gorm"
)

// Store is the console's local cache layer. The backend stays the source of
// truth; everything here is a synced copy or an audit record.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveTemplates upserts the synced catalog. Returns how many rows were stored.
func (s *Store) SaveTemplates(templates []models.TemplateDescriptor) int {
	stored := 0
	for _, t := range templates {
		componentsJSON := "[]"
		if compBytes, err := json.Marshal(t.Components); err == nil {
			componentsJSON = string(compBytes)
		}
		cached := models.CachedTemplate{
			Name:       t.Name,
			Language:   t.Language,
			Category:   t.Category,
			Status:     t.Status,
			Components: componentsJSON,
		}
		if err := s.db.Save(&cached).Error; err != nil {
			log.Printf("Error saving template %s: %v", t.Name, err)
			continue
		}
		stored++
	}
	return stored
}

// LoadTemplates returns the cached catalog as descriptors.
func (s *Store) LoadTemplates() ([]models.TemplateDescriptor, error) {
	var cached []models.CachedTemplate
	if err := s.db.Find(&cached).Error; err != nil {
		return nil, err
	}

	templates := make([]models.TemplateDescriptor, 0, len(cached))
	for _, c := range cached {
		t := models.TemplateDescriptor{
			Name:     c.Name,
			Language: c.Language,
			Category: c.Category,
			Status:   c.Status,
		}
		if err := json.Unmarshal([]byte(c.Components), &t.Components); err != nil {
			log.Printf("Skipping cached template %s with bad components: %v", c.Name, err)
			continue
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (s *Store) SaveSnapshot(snapshot *models.CampaignSnapshot) error {
	return s.db.Save(snapshot).Error
}

func (s *Store) GetSnapshot(campaignID int64) (*models.CampaignSnapshot, error) {
	var snapshot models.CampaignSnapshot
	if err := s.db.First(&snapshot, "campaign_id = ?", campaignID).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Store) SaveCancellation(record *models.CancellationRecord) error {
	return s.db.Create(record).Error
}

func (s *Store) GetCancellations(campaignID int64) ([]models.CancellationRecord, error) {
	var records []models.CancellationRecord
	err := s.db.Where("campaign_id = ?", campaignID).Order("created_at DESC").Find(&records).Error
	return records, err
}
