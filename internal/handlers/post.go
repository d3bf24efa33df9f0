package handlers

import (
	"net/http"

	"stylevote/internal/middleware"
	"stylevote/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 10

type PostHandler struct {
	aggregator *services.Aggregator
	posts      *services.PostService
}

func NewPostHandler(aggregator *services.Aggregator, posts *services.PostService) *PostHandler {
	return &PostHandler{aggregator: aggregator, posts: posts}
}

// List handles GET /posts?filter=recent|popular|trending&page=&limit=
func (h *PostHandler) List(c *gin.Context) {
	order, err := services.ParseOrder(c.Query("filter"))
	if err != nil {
		RespondError(c, err)
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok {
		return
	}

	views, total, err := h.aggregator.Feed(c.Request.Context(), middleware.ViewerID(c), order, page, limit)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": views,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Detail handles GET /posts/:id
func (h *PostHandler) Detail(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	view, err := h.aggregator.Hydrate(c.Request.Context(), postID, middleware.ViewerID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create handles POST /posts
func (h *PostHandler) Create(c *gin.Context) {
	var in services.CreatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		ErrorJSON(c, http.StatusBadRequest, "invalid JSON")
		return
	}

	viewerID := middleware.ViewerID(c)
	post, err := h.posts.Create(c.Request.Context(), *viewerID, in)
	if err != nil {
		RespondError(c, err)
		return
	}

	view, err := h.aggregator.Hydrate(c.Request.Context(), post.ID, viewerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Delete handles DELETE /posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), postID, *middleware.ViewerID(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Mine handles GET /me/posts
func (h *PostHandler) Mine(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	views, err := h.aggregator.UserPosts(c.Request.Context(), *viewerID, viewerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": views})
}

// Voted handles GET /me/votes
func (h *PostHandler) Voted(c *gin.Context) {
	views, err := h.aggregator.VotedPosts(c.Request.Context(), *middleware.ViewerID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": views})
}
