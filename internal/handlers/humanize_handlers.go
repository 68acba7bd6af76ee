package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/humanize-golang/internal/humanize"
)

// HumanizeInput is the body of POST /v1/humanize.
type HumanizeInput struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	Mode        string `json:"mode"`
	Readability string `json:"readability"`
	Purpose     string `json:"purpose"`
	Strength    string `json:"strength"`
	Truncate    bool   `json:"truncate"`
}

// Humanize runs one humanize workflow for the caller and waits for its result.
func (h *Handlers) Humanize(c *gin.Context) {
	// 1. --- Get User Context ---
	userID, sessionID, ok := currentUser(c)
	if !ok {
		return
	}

	// 2. --- Parse Input ---
	var input HumanizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": humanize.CodeValidation})
		return
	}
	mode, err := humanize.ParseMode(input.Mode)
	if err != nil {
		h.workflowError(c, err)
		return
	}

	// 3. --- Run ---
	res, err := h.Controller.Run(c.Request.Context(), humanize.Request{
		AccountID: userID,
		SessionID: sessionID,
		Title:     input.Title,
		Text:      input.Text,
		Mode:      mode,
		Options: humanize.Options{
			Readability: input.Readability,
			Purpose:     input.Purpose,
			Strength:    input.Strength,
		},
		Truncate: input.Truncate,
	})
	if err != nil {
		h.workflowError(c, err)
		return
	}

	// 4. --- Return the Output ---
	// Bookkeeping failures do not fail the request; the user already has the text.
	c.JSON(http.StatusOK, gin.H{
		"output":      res.Output,
		"demo":        res.Demo,
		"creditsUsed": res.CreditsUsed,
		"balance":     res.Balance,
		"mode":        res.Mode,
		"attempts":    res.Attempts,
		"state":       res.State,
		"project":     res.Project,
		"warnings":    res.Warnings(),
	})
}

// GetHumanizeStatus reports the workflow state of the caller's session.
func (h *Handlers) GetHumanizeStatus(c *gin.Context) {
	userID, sessionID, ok := currentUser(c)
	if !ok {
		return
	}
	key := humanize.SessionKey(userID, sessionID)
	c.JSON(http.StatusOK, gin.H{
		"state":    h.Controller.State(key),
		"inFlight": h.Controller.InFlight(key),
		"liveMode": h.Controller.LiveMode(key),
	})
}

// ModeInput is the body of PUT /v1/settings/mode.
type ModeInput struct {
	Live *bool `json:"live" binding:"required"`
}

// SetMode toggles the caller's session between the live provider and the simulator.
// Other sessions keep the server default.
func (h *Handlers) SetMode(c *gin.Context) {
	userID, sessionID, ok := currentUser(c)
	if !ok {
		return
	}
	var input ModeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := humanize.SessionKey(userID, sessionID)
	h.Controller.SetLiveMode(key, *input.Live)
	resp := gin.H{"liveMode": h.Controller.LiveMode(key)}
	if *input.Live && !resp["liveMode"].(bool) {
		resp["warning"] = "No provider credentials configured, runs stay simulated"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) workflowError(c *gin.Context, err error) {
	code := humanize.Classify(err)
	status := statusFor(code)
	msg := err.Error()

	var verr *humanize.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(status, gin.H{"error": msg, "code": code, "length": verr.Length, "limit": verr.Limit})
		return
	case status == http.StatusInternalServerError:
		h.serverError(c, "Humanize run failed", err)
		return
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}
