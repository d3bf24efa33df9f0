package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"stylevote/internal/middleware"
	"stylevote/internal/models"
	"stylevote/internal/services"
	"stylevote/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupRouter wires the handlers without sessions; X-Test-User stands in
// for the logged-in user.
func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	core, err := services.NewCore(conn, testutil.GetTestConfig())
	if err != nil {
		t.Fatal(err)
	}

	postHandler := NewPostHandler(core.Aggregator, core.Posts)
	voteHandler := NewVoteHandler(core.Votes, core.Tally)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			id, _ := strconv.ParseUint(v, 10, 64)
			c.Set(middleware.CheckUserKey, uint(id))
		}
		c.Next()
	})
	r.GET("/posts", postHandler.List)
	r.GET("/posts/:id", postHandler.Detail)
	r.GET("/posts/:id/votes", voteHandler.Counts)
	auth := r.Group("/", middleware.AuthRequired())
	auth.POST("/posts", postHandler.Create)
	auth.DELETE("/posts/:id", postHandler.Delete)
	auth.POST("/posts/:id/votes", voteHandler.Vote)
	auth.GET("/posts/:id/votes/user", voteHandler.Status)
	return r, conn
}

func doRequest(r *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVoteFlow(t *testing.T) {
	r, conn := setupRouter(t)
	post := testutil.CreateTestPost(t, conn, 1, time.Now().UTC().Truncate(time.Second))
	path := "/posts/" + strconv.Itoa(int(post.ID)) + "/votes"
	optA := map[string]any{"option_id": post.Options[0].ID}

	w := doRequest(r, http.MethodPost, path, "", optA)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous vote: expected 401, got %d", w.Code)
	}

	w = doRequest(r, http.MethodPost, path, "5", optA)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, path, "5", map[string]any{"option_id": post.Options[1].ID})
	if w.Code != http.StatusConflict {
		t.Errorf("second vote: expected 409, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, path+"/user", "5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", w.Code)
	}
	var status models.VoteStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if !status.Voted || status.OptionID == nil || *status.OptionID != post.Options[0].ID {
		t.Errorf("unexpected status %+v", status)
	}

	w = doRequest(r, http.MethodGet, path, "", nil)
	var tallies []models.OptionTally
	if err := json.Unmarshal(w.Body.Bytes(), &tallies); err != nil {
		t.Fatal(err)
	}
	if len(tallies) != 2 || tallies[0].Count != 1 || tallies[1].Count != 0 {
		t.Errorf("unexpected tallies %+v", tallies)
	}
}

func TestVote_ErrorStatuses(t *testing.T) {
	r, conn := setupRouter(t)
	p1 := testutil.CreateTestPost(t, conn, 1, time.Now().UTC())
	p2 := testutil.CreateTestPost(t, conn, 1, time.Now().UTC())

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing post", "/posts/9999/votes", map[string]any{"option_id": p1.Options[0].ID}, http.StatusNotFound},
		{"option of another post", "/posts/" + strconv.Itoa(int(p1.ID)) + "/votes", map[string]any{"option_id": p2.Options[0].ID}, http.StatusNotFound},
		{"missing option id", "/posts/" + strconv.Itoa(int(p1.ID)) + "/votes", map[string]any{}, http.StatusBadRequest},
		{"bad post id", "/posts/abc/votes", map[string]any{"option_id": 1}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, tt.path, "9", tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestListPosts(t *testing.T) {
	r, conn := setupRouter(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		testutil.CreateTestPost(t, conn, 1, base.Add(time.Duration(i)*time.Hour))
	}

	w := doRequest(r, http.MethodGet, "/posts?filter=popular&page=3&limit=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Posts []models.PostView `json:"posts"`
		Total int64             `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 5 || len(resp.Posts) != 1 {
		t.Errorf("expected 1 of 5, got %d of %d", len(resp.Posts), resp.Total)
	}

	for _, q := range []string{"filter=hot", "page=0", "limit=1000", "page=x"} {
		w := doRequest(r, http.MethodGet, "/posts?"+q, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestCreateAndDeletePost(t *testing.T) {
	r, _ := setupRouter(t)

	body := map[string]any{
		"title": "Which sneakers?",
		"type":  "look",
		"options": []map[string]any{
			{"image_url": "https://img.example.com/1.jpg"},
			{"image_url": "https://img.example.com/2.jpg"},
		},
	}
	w := doRequest(r, http.MethodPost, "/posts", "4", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var view models.PostView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Type != models.PostTypeLook || len(view.Options) != 2 {
		t.Errorf("unexpected view %+v", view)
	}

	path := "/posts/" + strconv.Itoa(int(view.ID))
	if w := doRequest(r, http.MethodDelete, path, "5", nil); w.Code != http.StatusForbidden {
		t.Errorf("non-owner delete: expected 403, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodDelete, path, "4", nil); w.Code != http.StatusNoContent {
		t.Errorf("owner delete: expected 204, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, path, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("deleted post: expected 404, got %d", w.Code)
	}

	body["options"] = body["options"].([]map[string]any)[:1]
	if w := doRequest(r, http.MethodPost, "/posts", "4", body); w.Code != http.StatusBadRequest {
		t.Errorf("single option: expected 400, got %d", w.Code)
	}
}
