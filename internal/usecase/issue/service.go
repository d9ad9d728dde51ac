package issue

import (
	"context"
	"time"

	domainIssue "raisevoice/internal/domain/issue"
	"raisevoice/internal/logger"
	appErrors "raisevoice/pkg/errors"
	"raisevoice/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageStore removes hosted images when their issue goes away. Removal is
// best-effort; an orphaned object is acceptable, a blocked delete is not.
// KeyFromURL maps a public image URL back to its deletable object key, or ""
// when the URL is not one of ours.
type ImageStore interface {
	Delete(ctx context.Context, objectKey string) error
	KeyFromURL(url string) string
}

// Service implements issue use cases
type Service struct {
	issueRepo  domainIssue.Repository
	imageStore ImageStore
}

// NewService creates a new issue service
func NewService(issueRepo domainIssue.Repository, imageStore ImageStore) *Service {
	return &Service{
		issueRepo:  issueRepo,
		imageStore: imageStore,
	}
}

func (s *Service) Create(ctx context.Context, reporterID uuid.UUID, req *CreateIssueRequest) (*IssueResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	if len(req.Images) > domainIssue.MaxImagesPerIssue {
		return nil, domainIssue.ErrTooManyImages
	}

	images := make([]domainIssue.Image, len(req.Images))
	for i, u := range req.Images {
		images[i] = domainIssue.Image{URL: u, Key: s.imageStore.KeyFromURL(u)}
	}

	anonymous := true
	if req.Anonymous != nil {
		anonymous = *req.Anonymous
	}

	iss := &domainIssue.Issue{
		Title:       utils.SanitizeText(req.Title),
		Description: utils.SanitizeText(req.Description),
		Category:    domainIssue.Category(req.Category),
		Status:      domainIssue.StatusOpen,
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
		Address:     req.Address,
		Images:      images,
		ReporterID:  reporterID,
		Anonymous:   anonymous,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.issueRepo.Create(ctx, iss); err != nil {
		return nil, err
	}

	logger.Info("Issue created",
		zap.String("issue_id", iss.ID.String()),
		zap.String("category", string(iss.Category)),
		zap.String("event", "issue_created"),
	)

	return toIssueResponse(iss), nil
}

func (s *Service) Get(ctx context.Context, issueID uuid.UUID) (*IssueResponse, error) {
	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return toIssueResponse(iss), nil
}

func (s *Service) List(ctx context.Context, req *ListIssuesRequest) (*IssueListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, filter)
}

// ListByReporter lists the caller's own reports. It is the only listing that
// filters on reporter identity, and its output still passes through the same
// anonymizing transform as every other read.
func (s *Service) ListByReporter(ctx context.Context, reporterID uuid.UUID, req *ListIssuesRequest) (*IssueListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}
	filter.ReporterID = &reporterID

	return s.list(ctx, filter)
}

func (s *Service) Update(ctx context.Context, issueID, callerID uuid.UUID, req *UpdateIssueRequest) (*IssueResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if iss.ReporterID != callerID {
		logger.Warn("Issue update attempt by non-owner",
			zap.String("issue_id", issueID.String()),
			zap.String("caller_id", callerID.String()),
			zap.String("event", "issue_update_denied"),
		)
		return nil, domainIssue.ErrNotIssueOwner
	}

	if req.Title != nil {
		iss.Title = utils.SanitizeText(*req.Title)
	}
	if req.Description != nil {
		iss.Description = utils.SanitizeText(*req.Description)
	}
	if req.Status != nil {
		status := domainIssue.Status(*req.Status)
		if !status.IsValid() {
			return nil, domainIssue.ErrInvalidStatus
		}
		iss.Status = status
	}

	if err := s.issueRepo.Update(ctx, iss); err != nil {
		return nil, err
	}

	return toIssueResponse(iss), nil
}

func (s *Service) Delete(ctx context.Context, issueID, callerID uuid.UUID) error {
	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return err
	}

	if iss.ReporterID != callerID {
		logger.Warn("Issue delete attempt by non-owner",
			zap.String("issue_id", issueID.String()),
			zap.String("caller_id", callerID.String()),
			zap.String("event", "issue_delete_denied"),
		)
		return domainIssue.ErrNotIssueOwner
	}

	return s.delete(ctx, iss)
}

// AdminUpdateStatus moves an issue to any valid status. No ordering between
// statuses is enforced; triage can move back and forth.
func (s *Service) AdminUpdateStatus(ctx context.Context, issueID uuid.UUID, req *UpdateStatusRequest) (*IssueResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	status := domainIssue.Status(req.Status)
	if !status.IsValid() {
		return nil, domainIssue.ErrInvalidStatus
	}

	if err := s.issueRepo.UpdateStatus(ctx, issueID, status); err != nil {
		return nil, err
	}

	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	logger.Info("Issue status updated",
		zap.String("issue_id", issueID.String()),
		zap.String("status", req.Status),
		zap.String("event", "issue_status_updated"),
	)

	return toIssueResponse(iss), nil
}

// AdminDelete removes any issue regardless of ownership.
func (s *Service) AdminDelete(ctx context.Context, issueID uuid.UUID) error {
	iss, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return err
	}
	return s.delete(ctx, iss)
}

func (s *Service) GetStatistics(ctx context.Context) (*StatisticsResponse, error) {
	stats, err := s.issueRepo.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.issueRepo.List(ctx, &domainIssue.Filter{Page: 1, PageSize: 10})
	if err != nil {
		return nil, err
	}
	recentResponses := make([]*IssueResponse, len(recent))
	for i, iss := range recent {
		recentResponses[i] = toIssueResponse(iss)
	}

	return &StatisticsResponse{
		TotalIssues: stats.TotalIssues,
		ByStatus:    stats.ByStatus,
		ByCategory:  stats.ByCategory,
		Recent:      recentResponses,
	}, nil
}

func (s *Service) delete(ctx context.Context, iss *domainIssue.Issue) error {
	if err := s.issueRepo.Delete(ctx, iss.ID); err != nil {
		return err
	}

	// Image removal after the row is gone: a failure leaves an orphaned object
	// at the host but never resurrects the issue.
	for _, img := range iss.Images {
		if img.Key == "" {
			continue
		}
		if err := s.imageStore.Delete(ctx, img.Key); err != nil {
			logger.Warn("Failed to delete hosted image",
				zap.String("issue_id", iss.ID.String()),
				zap.String("object_key", img.Key),
				zap.Error(err),
			)
		}
	}

	logger.Info("Issue deleted",
		zap.String("issue_id", iss.ID.String()),
		zap.String("event", "issue_deleted"),
	)

	return nil
}

func (s *Service) buildFilter(req *ListIssuesRequest) (*domainIssue.Filter, error) {
	filter := &domainIssue.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	if req.Category != "" {
		category := domainIssue.Category(req.Category)
		if !category.IsValid() {
			return nil, domainIssue.ErrInvalidCategory
		}
		filter.Category = &category
	}
	if req.Status != "" {
		status := domainIssue.Status(req.Status)
		if !status.IsValid() {
			return nil, domainIssue.ErrInvalidStatus
		}
		filter.Status = &status
	}

	// The proximity filter needs the full point plus a radius; a partial set of
	// coordinates is treated as no filter at all.
	if req.Latitude != nil && req.Longitude != nil && req.RadiusKm != nil {
		filter.Near = &domainIssue.NearFilter{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			RadiusKm:  *req.RadiusKm,
		}
	}

	return filter, nil
}

func (s *Service) list(ctx context.Context, filter *domainIssue.Filter) (*IssueListResponse, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	filter.Page = page
	filter.PageSize = pageSize

	issues, total, err := s.issueRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*IssueResponse, len(issues))
	for i, iss := range issues {
		responses[i] = toIssueResponse(iss)
	}

	return &IssueListResponse{
		Issues: responses,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
			Pages:    (total + int64(pageSize) - 1) / int64(pageSize),
		},
	}, nil
}
