// Package mockapi is an in-memory stand-in for the sports-content API. It
// serves every logical endpoint the harness exercises, with deterministic
// fixture data, so scenarios can be validated end to end without touching a
// real environment.
package mockapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server is the mock sports-content API.
type Server struct {
	engine   *gin.Engine
	tokens   *tokenService
	password string
}

// New builds the server. Any email logs in as long as the password matches;
// that mirrors the seeded test-account pool in staging.
func New(password string) *Server {
	s := &Server{
		engine:   gin.New(),
		tokens:   newTokenService("mock-api-signing-secret", 24*time.Hour),
		password: password,
	}
	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.Default())
	s.routes()
	return s
}

// Handler exposes the router for httptest servers and cmd/mockapi.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.POST("/auth/login", s.login)
	api.GET("/feed/latest", s.latestFeed)
	api.GET("/feed/items/:id/comments", s.itemComments)
	api.GET("/teams/:id/feed", s.teamFeed)
	api.GET("/teams/:id/games", s.teamGames)

	authed := api.Group("", s.tokens.requireAuth())
	authed.GET("/users/me", s.me)
	authed.GET("/users/me/teams", s.userTeams)
	authed.GET("/teams/:id/top", s.teamTop)
	authed.GET("/teams/:id/summary", s.summary)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	if req.Password != s.password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.tokens.issue(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"email": c.GetString(emailContextKey),
		"name":  "Load Test User",
	})
}

func (s *Server) userTeams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": []gin.H{
		{"id": 3, "name": "Team 3"},
		{"id": 41, "name": "Team 41"},
	}})
}

func (s *Server) latestFeed(c *gin.Context) {
	items := itemsAfter(feedItems(1, 10), c.Query("after"))
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) itemComments(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": comments(itemID)})
}

func (s *Server) teamID(c *gin.Context) (int, bool) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil || teamID <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
		return 0, false
	}
	return teamID, true
}

func (s *Server) teamFeed(c *gin.Context) {
	teamID, ok := s.teamID(c)
	if !ok {
		return
	}
	items := itemsAfter(feedItems(teamID, 6), c.Query("after"))
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) teamGames(c *gin.Context) {
	teamID, ok := s.teamID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games(teamID)})
}

func (s *Server) teamTop(c *gin.Context) {
	teamID, ok := s.teamID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"top_items": feedItems(teamID, 3)})
}

func (s *Server) summary(c *gin.Context) {
	teamID, ok := s.teamID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, teamSummary(teamID))
}
