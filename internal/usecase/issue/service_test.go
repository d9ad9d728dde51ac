package issue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	domainIssue "raisevoice/internal/domain/issue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type fakeIssueRepo struct {
	issues map[uuid.UUID]*domainIssue.Issue
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[uuid.UUID]*domainIssue.Issue)}
}

func (f *fakeIssueRepo) Create(ctx context.Context, iss *domainIssue.Issue) error {
	if iss.ID == uuid.Nil {
		iss.ID = uuid.New()
	}
	f.issues[iss.ID] = iss
	return nil
}

func (f *fakeIssueRepo) GetByID(ctx context.Context, issueID uuid.UUID) (*domainIssue.Issue, error) {
	iss, ok := f.issues[issueID]
	if !ok {
		return nil, domainIssue.ErrIssueNotFound
	}
	return iss, nil
}

func (f *fakeIssueRepo) Update(ctx context.Context, iss *domainIssue.Issue) error {
	if _, ok := f.issues[iss.ID]; !ok {
		return domainIssue.ErrIssueNotFound
	}
	f.issues[iss.ID] = iss
	return nil
}

func (f *fakeIssueRepo) UpdateStatus(ctx context.Context, issueID uuid.UUID, status domainIssue.Status) error {
	iss, ok := f.issues[issueID]
	if !ok {
		return domainIssue.ErrIssueNotFound
	}
	iss.Status = status
	return nil
}

func (f *fakeIssueRepo) Delete(ctx context.Context, issueID uuid.UUID) error {
	if _, ok := f.issues[issueID]; !ok {
		return domainIssue.ErrIssueNotFound
	}
	delete(f.issues, issueID)
	return nil
}

func (f *fakeIssueRepo) List(ctx context.Context, filter *domainIssue.Filter) ([]*domainIssue.Issue, int64, error) {
	var out []*domainIssue.Issue
	for _, iss := range f.issues {
		if filter.Category != nil && iss.Category != *filter.Category {
			continue
		}
		if filter.Status != nil && iss.Status != *filter.Status {
			continue
		}
		if filter.ReporterID != nil && iss.ReporterID != *filter.ReporterID {
			continue
		}
		out = append(out, iss)
	}
	return out, int64(len(out)), nil
}

func (f *fakeIssueRepo) GetStatistics(ctx context.Context) (*domainIssue.Statistics, error) {
	stats := &domainIssue.Statistics{
		TotalIssues: len(f.issues),
		ByStatus:    make(map[string]int),
		ByCategory:  make(map[string]int),
	}
	for _, iss := range f.issues {
		stats.ByStatus[string(iss.Status)]++
		stats.ByCategory[string(iss.Category)]++
	}
	return stats, nil
}

type fakeImageStore struct {
	deleted []string
	err     error
}

func (f *fakeImageStore) Delete(ctx context.Context, objectKey string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeImageStore) KeyFromURL(url string) string {
	const prefix = "https://images.example.com/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// -------- helpers --------

func newTestService(t *testing.T) (*Service, *fakeIssueRepo, *fakeImageStore) {
	t.Helper()
	repo := newFakeIssueRepo()
	store := &fakeImageStore{}
	return NewService(repo, store), repo, store
}

func createIssue(t *testing.T, svc *Service, reporterID uuid.UUID) *IssueResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), reporterID, &CreateIssueRequest{
		Title:       "Broken streetlight on Elm Street",
		Description: "The light at the corner has been out for a week.",
		Category:    "streetlight",
		Longitude:   106.6297,
		Latitude:    10.8231,
		Images: []string{
			"https://images.example.com/issues/2026/08/one.jpg",
			"https://images.example.com/issues/2026/08/two.jpg",
		},
	})
	require.NoError(t, err)
	return resp
}

// -------- tests --------

func TestCreateIssue(t *testing.T) {
	svc, repo, _ := newTestService(t)
	reporterID := uuid.New()

	resp := createIssue(t, svc, reporterID)

	assert.Equal(t, "open", resp.Status)
	assert.Equal(t, "streetlight", resp.Category)
	assert.Equal(t, 106.6297, resp.Location.Longitude)
	assert.Equal(t, 10.8231, resp.Location.Latitude)
	assert.Len(t, resp.Images, 2)

	stored := repo.issues[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, reporterID, stored.ReporterID)
	assert.Equal(t, "issues/2026/08/one.jpg", stored.Images[0].Key)
}

func TestCreateIssueRejectsTooManyImages(t *testing.T) {
	svc, _, _ := newTestService(t)

	images := make([]string, domainIssue.MaxImagesPerIssue+1)
	for i := range images {
		images[i] = "https://images.example.com/issues/2026/08/photo.jpg"
	}

	_, err := svc.Create(context.Background(), uuid.New(), &CreateIssueRequest{
		Title:       "Broken streetlight on Elm Street",
		Description: "The light at the corner has been out for a week.",
		Category:    "streetlight",
		Longitude:   106.6297,
		Latitude:    10.8231,
		Images:      images,
	})
	require.Error(t, err)
}

func TestCreateIssueRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New(), &CreateIssueRequest{
		Title:       "Broken streetlight on Elm Street",
		Description: "The light at the corner has been out for a week.",
		Category:    "potholes-and-more",
		Longitude:   106.6297,
		Latitude:    10.8231,
	})
	require.Error(t, err)
}

func TestReporterIsAnonymizedOnEveryReadPath(t *testing.T) {
	svc, _, _ := newTestService(t)
	reporterID := uuid.New()
	created := createIssue(t, svc, reporterID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)

	list, err := svc.List(context.Background(), &ListIssuesRequest{})
	require.NoError(t, err)
	require.Len(t, list.Issues, 1)

	mine, err := svc.ListByReporter(context.Background(), reporterID, &ListIssuesRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Issues, 1)

	for _, resp := range []*IssueResponse{created, got, list.Issues[0], mine.Issues[0]} {
		assert.Equal(t, AnonymousReporterName, resp.Reporter.Name)
		assert.Equal(t, reporterID, resp.Reporter.ID)
	}
}

func TestIssueJSONCarriesNoReporterIdentity(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := createIssue(t, svc, uuid.New())

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)

	payload := strings.ToLower(string(data))
	assert.NotContains(t, payload, "email")
	assert.NotContains(t, payload, "password")
	// Object keys are internal; only public URLs go out.
	assert.Contains(t, payload, "https://images.example.com/")
	assert.NotContains(t, payload, `"key"`)
	assert.Contains(t, payload, strings.ToLower(AnonymousReporterName))
}

func TestListFiltersByCategoryAndStatus(t *testing.T) {
	svc, repo, _ := newTestService(t)
	createIssue(t, svc, uuid.New())

	other := &domainIssue.Issue{
		ID:          uuid.New(),
		Title:       "Garbage pileup near the market",
		Description: "Bags have not been collected in days.",
		Category:    domainIssue.CategoryGarbage,
		Status:      domainIssue.StatusResolved,
		ReporterID:  uuid.New(),
	}
	repo.issues[other.ID] = other

	byCategory, err := svc.List(context.Background(), &ListIssuesRequest{Category: "garbage"})
	require.NoError(t, err)
	require.Len(t, byCategory.Issues, 1)
	assert.Equal(t, "garbage", byCategory.Issues[0].Category)

	byStatus, err := svc.List(context.Background(), &ListIssuesRequest{Status: "open"})
	require.NoError(t, err)
	require.Len(t, byStatus.Issues, 1)
	assert.Equal(t, "open", byStatus.Issues[0].Status)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc, _, _ := newTestService(t)
	reporterID := uuid.New()
	created := createIssue(t, svc, reporterID)

	newTitle := "Streetlight still broken on Elm Street"
	_, err := svc.Update(context.Background(), created.ID, uuid.New(), &UpdateIssueRequest{
		Title: &newTitle,
	})
	assert.ErrorIs(t, err, domainIssue.ErrNotIssueOwner)

	updated, err := svc.Update(context.Background(), created.ID, reporterID, &UpdateIssueRequest{
		Title: &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
}

func TestDeleteRequiresOwnership(t *testing.T) {
	svc, repo, _ := newTestService(t)
	reporterID := uuid.New()
	created := createIssue(t, svc, reporterID)

	err := svc.Delete(context.Background(), created.ID, uuid.New())
	assert.ErrorIs(t, err, domainIssue.ErrNotIssueOwner)
	assert.Contains(t, repo.issues, created.ID)

	require.NoError(t, svc.Delete(context.Background(), created.ID, reporterID))
	assert.NotContains(t, repo.issues, created.ID)
}

func TestDeleteRemovesHostedImages(t *testing.T) {
	svc, _, store := newTestService(t)
	reporterID := uuid.New()
	created := createIssue(t, svc, reporterID)

	require.NoError(t, svc.Delete(context.Background(), created.ID, reporterID))
	assert.ElementsMatch(t, []string{
		"issues/2026/08/one.jpg",
		"issues/2026/08/two.jpg",
	}, store.deleted)
}

func TestDeleteSucceedsWhenImageStoreFails(t *testing.T) {
	svc, repo, store := newTestService(t)
	reporterID := uuid.New()
	created := createIssue(t, svc, reporterID)
	store.err = errors.New("bucket unavailable")

	// Image cleanup is best-effort; the issue row must go regardless.
	require.NoError(t, svc.Delete(context.Background(), created.ID, reporterID))
	assert.NotContains(t, repo.issues, created.ID)
}

func TestAdminUpdateStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := createIssue(t, svc, uuid.New())

	resp, err := svc.AdminUpdateStatus(context.Background(), created.ID, &UpdateStatusRequest{
		Status: "in-progress",
	})
	require.NoError(t, err)
	assert.Equal(t, "in-progress", resp.Status)

	// Statuses move freely in any direction.
	resp, err = svc.AdminUpdateStatus(context.Background(), created.ID, &UpdateStatusRequest{
		Status: "open",
	})
	require.NoError(t, err)
	assert.Equal(t, "open", resp.Status)

	_, err = svc.AdminUpdateStatus(context.Background(), created.ID, &UpdateStatusRequest{
		Status: "closed",
	})
	require.Error(t, err)
}

func TestAdminDeleteIgnoresOwnership(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := createIssue(t, svc, uuid.New())

	require.NoError(t, svc.AdminDelete(context.Background(), created.ID))
	assert.NotContains(t, repo.issues, created.ID)
}

func TestGetStatistics(t *testing.T) {
	svc, repo, _ := newTestService(t)
	createIssue(t, svc, uuid.New())

	resolved := &domainIssue.Issue{
		ID:         uuid.New(),
		Category:   domainIssue.CategoryRoad,
		Status:     domainIssue.StatusResolved,
		ReporterID: uuid.New(),
		CreatedAt:  time.Now(),
	}
	repo.issues[resolved.ID] = resolved

	stats, err := svc.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalIssues)
	assert.Equal(t, 1, stats.ByStatus["open"])
	assert.Equal(t, 1, stats.ByStatus["resolved"])
	assert.Equal(t, 1, stats.ByCategory["streetlight"])
	assert.Equal(t, 1, stats.ByCategory["road"])

	// Recent activity goes through the same anonymizing transform.
	require.Len(t, stats.Recent, 2)
	for _, r := range stats.Recent {
		assert.Equal(t, AnonymousReporterName, r.Reporter.Name)
	}
}

func TestOwnerCanUpdateStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	reporterID := uuid.New()
	created := createIssue(t, svc, reporterID)

	resolved := "resolved"
	updated, err := svc.Update(context.Background(), created.ID, reporterID, &UpdateIssueRequest{
		Status: &resolved,
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", updated.Status)
}
