package handler

import (
	"net/http"

	"raisevoice/internal/middleware"
	"raisevoice/internal/usecase/issue"
	"raisevoice/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IssueHandler struct {
	service *issue.Service
}

func NewIssueHandler(service *issue.Service) *IssueHandler {
	return &IssueHandler{service: service}
}

func (h *IssueHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	issues := router.Group("/issues")
	{
		issues.GET("", h.ListIssues)
		issues.GET("/:id", h.GetIssue)
	}
}

func (h *IssueHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	issues := router.Group("/issues")
	{
		issues.POST("", h.CreateIssue)
		issues.GET("/mine", h.ListMyIssues)
		issues.PATCH("/:id", h.UpdateIssue)
		issues.DELETE("/:id", h.DeleteIssue)
	}
}

func (h *IssueHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	issues := router.Group("/issues")
	{
		issues.GET("", h.ListIssues)
		issues.PATCH("/:id/status", h.UpdateStatus)
		issues.DELETE("/:id", h.AdminDeleteIssue)
	}
	router.GET("/stats", h.GetStatistics)
}

func (h *IssueHandler) CreateIssue(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req issue.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Issue created successfully", result)
}

func (h *IssueHandler) GetIssue(c *gin.Context) {
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	result, err := h.service.Get(c.Request.Context(), issueID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issue retrieved", result)
}

func (h *IssueHandler) ListIssues(c *gin.Context) {
	var req issue.ListIssuesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.List(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issues retrieved", result)
}

func (h *IssueHandler) ListMyIssues(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req issue.ListIssuesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.ListByReporter(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issues retrieved", result)
}

func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	var req issue.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Update(c.Request.Context(), issueID, userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issue updated", result)
}

func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), issueID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issue deleted", nil)
}

func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	var req issue.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.AdminUpdateStatus(c.Request.Context(), issueID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issue status updated", result)
}

func (h *IssueHandler) AdminDeleteIssue(c *gin.Context) {
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	if err := h.service.AdminDelete(c.Request.Context(), issueID); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issue deleted", nil)
}

func (h *IssueHandler) GetStatistics(c *gin.Context) {
	result, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved", result)
}
