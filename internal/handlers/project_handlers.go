package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetMyProjects lists the caller's projects, newest first.
func (h *Handlers) GetMyProjects(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.Store.ListProjects(c.Request.Context(), userID)
	if err != nil {
		h.serverError(c, "Failed to fetch projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject returns one project with its input and output text.
func (h *Handlers) GetProject(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	p, err := h.Store.GetProject(c.Request.Context(), userID, projectID)
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to fetch project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// DeleteProject removes one of the caller's projects.
func (h *Handlers) DeleteProject(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	err := h.Store.DeleteProject(c.Request.Context(), userID, projectID)
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to delete project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

func projectIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return 0, false
	}
	return id, true
}
