package handlers

import (
	"net/http"

	"stylevote/internal/middleware"
	"stylevote/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	ledger *services.VoteLedger
	tally  *services.TallyEngine
}

func NewVoteHandler(ledger *services.VoteLedger, tally *services.TallyEngine) *VoteHandler {
	return &VoteHandler{ledger: ledger, tally: tally}
}

type castVoteRequest struct {
	OptionID uint `json:"option_id" binding:"required"`
}

// Vote handles POST /posts/:id/votes
func (h *VoteHandler) Vote(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorJSON(c, http.StatusBadRequest, "option_id is required")
		return
	}

	vote, err := h.ledger.CastVote(c.Request.Context(), postID, *middleware.ViewerID(c), req.OptionID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vote)
}

// Counts handles GET /posts/:id/votes
func (h *VoteHandler) Counts(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	tallies, err := h.tally.PostTally(c.Request.Context(), postID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tallies)
}

// Status handles GET /posts/:id/votes/user
func (h *VoteHandler) Status(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	status, err := h.ledger.VoteStatus(c.Request.Context(), postID, *middleware.ViewerID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
