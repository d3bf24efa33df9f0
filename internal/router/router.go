package router

import (
	"net/http"

	"stylevote/internal/handlers"
	"stylevote/internal/middleware"
	"stylevote/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// New builds the gin engine with sessions, logging and every route.
func New(core *services.Core, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("stylevote_session", store))
	r.Use(middleware.LoadUser())

	RegisterRoutes(r, core)
	return r
}

func RegisterRoutes(r *gin.Engine, core *services.Core) {
	postHandler := handlers.NewPostHandler(core.Aggregator, core.Posts)
	voteHandler := handlers.NewVoteHandler(core.Votes, core.Tally)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// 公共路由 (Public Routes)
	r.GET("/posts", postHandler.List)              // 帖子列表 recent/popular/trending
	r.GET("/posts/:id", postHandler.Detail)        // 帖子详情
	r.GET("/posts/:id/votes", voteHandler.Counts) // 各选项票数

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)                  // 发布帖子
		authorized.DELETE("/posts/:id", postHandler.Delete)            // 删除帖子
		authorized.POST("/posts/:id/votes", voteHandler.Vote)          // 投票
		authorized.GET("/posts/:id/votes/user", voteHandler.Status)    // 当前用户是否已投票
		authorized.GET("/me/posts", postHandler.Mine)                  // 我发布的帖子
		authorized.GET("/me/votes", postHandler.Voted)                 // 我投过票的帖子
	}
}
