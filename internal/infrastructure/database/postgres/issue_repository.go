package postgres

import (
	"context"
	"errors"
	"fmt"
	"raisevoice/internal/domain/issue"
	"raisevoice/internal/infrastructure/database/postgres/models"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// haversineKm computes the great-circle distance in kilometers between the
// bound point and each row's coordinates, entirely in SQL.
const haversineKm = `(6371 * acos(least(1.0,
	cos(radians(?)) * cos(radians(latitude)) * cos(radians(longitude) - radians(?)) +
	sin(radians(?)) * sin(radians(latitude)))))`

// IssueRepository implements issue.Repository
type IssueRepository struct {
	db *DB
}

// NewIssueRepository creates a new issue repository
func NewIssueRepository(db *DB) issue.Repository {
	return &IssueRepository{db: db}
}

func (r *IssueRepository) Create(ctx context.Context, iss *issue.Issue) error {
	iss.ID = uuid.New()
	iss.CreatedAt = time.Now()
	iss.UpdatedAt = time.Now()
	if iss.Status == "" {
		iss.Status = issue.StatusOpen
	}

	dbModel := toIssueModel(iss)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	iss.ID = dbModel.ID
	iss.CreatedAt = dbModel.CreatedAt
	iss.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *IssueRepository) GetByID(ctx context.Context, issueID uuid.UUID) (*issue.Issue, error) {
	var dbModel models.IssueModel
	err := r.db.DB.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("issue_images.position ASC")
		}).
		Where("id = ?", issueID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, issue.ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	return toIssueEntity(&dbModel), nil
}

func (r *IssueRepository) Update(ctx context.Context, iss *issue.Issue) error {
	iss.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.IssueModel{}).
		Where("id = ?", iss.ID).
		Updates(map[string]interface{}{
			"title":       iss.Title,
			"description": iss.Description,
			"status":      string(iss.Status),
			"updated_at":  iss.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update issue: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return issue.ErrIssueNotFound
	}

	return nil
}

func (r *IssueRepository) UpdateStatus(ctx context.Context, issueID uuid.UUID, status issue.Status) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.IssueModel{}).
		Where("id = ?", issueID).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update issue status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return issue.ErrIssueNotFound
	}

	return nil
}

func (r *IssueRepository) Delete(ctx context.Context, issueID uuid.UUID) error {
	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", issueID).Delete(&models.IssueImageModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", issueID).Delete(&models.IssueModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return issue.ErrIssueNotFound
		}
		return nil
	})

	if errors.Is(err, issue.ErrIssueNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}

	return nil
}

func (r *IssueRepository) List(ctx context.Context, filter *issue.Filter) ([]*issue.Issue, int64, error) {
	var dbModels []models.IssueModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.IssueModel{}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("issue_images.position ASC")
		})

	// Apply filters
	if filter.Category != nil {
		db = db.Where("category = ?", string(*filter.Category))
	}
	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.ReporterID != nil {
		db = db.Where("reporter_id = ?", *filter.ReporterID)
	}
	if filter.Near != nil {
		db = db.Where(haversineKm+" <= ?",
			filter.Near.Latitude, filter.Near.Longitude, filter.Near.Latitude,
			filter.Near.RadiusKm)
	}

	// Count total
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count issues: %w", err)
	}

	// Apply pagination
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	err := db.Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}

	issues := make([]*issue.Issue, len(dbModels))
	for i, dbModel := range dbModels {
		issues[i] = toIssueEntity(&dbModel)
	}

	return issues, total, nil
}

func (r *IssueRepository) GetStatistics(ctx context.Context) (*issue.Statistics, error) {
	stats := &issue.Statistics{
		ByStatus:   make(map[string]int),
		ByCategory: make(map[string]int),
	}

	var totalIssues int64
	if err := r.db.DB.WithContext(ctx).Model(&models.IssueModel{}).Count(&totalIssues).Error; err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}
	stats.TotalIssues = int(totalIssues)

	var statusCounts []struct {
		Status string
		Count  int
	}
	err := r.db.DB.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) as count
		FROM issues
		GROUP BY status
	`).Scan(&statusCounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	for _, sc := range statusCounts {
		stats.ByStatus[sc.Status] = sc.Count
	}

	var categoryCounts []struct {
		Category string
		Count    int
	}
	err = r.db.DB.WithContext(ctx).Raw(`
		SELECT category, COUNT(*) as count
		FROM issues
		GROUP BY category
	`).Scan(&categoryCounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	for _, cc := range categoryCounts {
		stats.ByCategory[cc.Category] = cc.Count
	}

	return stats, nil
}

// Helper functions to convert between domain entities and database models

func toIssueModel(iss *issue.Issue) *models.IssueModel {
	dbModel := &models.IssueModel{
		ID:          iss.ID,
		Title:       iss.Title,
		Description: iss.Description,
		Category:    string(iss.Category),
		Status:      string(iss.Status),
		Longitude:   iss.Longitude,
		Latitude:    iss.Latitude,
		Address:     iss.Address,
		ReporterID:  iss.ReporterID,
		Anonymous:   iss.Anonymous,
		CreatedAt:   iss.CreatedAt,
		UpdatedAt:   iss.UpdatedAt,
	}

	for i, img := range iss.Images {
		dbModel.Images = append(dbModel.Images, models.IssueImageModel{
			ID:        uuid.New(),
			IssueID:   iss.ID,
			URL:       img.URL,
			ObjectKey: img.Key,
			Position:  i,
			CreatedAt: iss.CreatedAt,
		})
	}

	return dbModel
}

func toIssueEntity(m *models.IssueModel) *issue.Issue {
	iss := &issue.Issue{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Category:    issue.Category(m.Category),
		Status:      issue.Status(m.Status),
		Longitude:   m.Longitude,
		Latitude:    m.Latitude,
		Address:     m.Address,
		ReporterID:  m.ReporterID,
		Anonymous:   m.Anonymous,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	for _, img := range m.Images {
		iss.Images = append(iss.Images, issue.Image{
			URL: img.URL,
			Key: img.ObjectKey,
		})
	}

	return iss
}
