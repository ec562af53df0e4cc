// Package sandbox is a built-in development backend: an in-memory
// implementation of the MyHome auth and CRUD API contract, used for local
// development and as the fixture the client's integration tests run
// against. It is never a production server.
package sandbox

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/myhome/myhome/internal/session"
	"github.com/myhome/myhome/pkg/pagination"
)

// resourceNames are the generic CRUD collections the sandbox serves under
// /api/v1. Users are handled separately through the account store.
var resourceNames = []string{
	"facilities", "residents", "medications", "med-logs", "documents",
	"contacts", "care-plans", "assessments", "notes", "forms", "reports",
}

// facilityScoped lists the collections whose items carry a facility_id and
// are therefore narrowed to the caller's own facility for non-admin roles.
var facilityScoped = map[string]bool{
	"residents": true, "documents": true, "forms": true, "reports": true,
}

type Server struct {
	echo    *echo.Echo
	logger  zerolog.Logger
	users   *userStore
	issuer  *tokenIssuer
	refresh *refreshStore
	data    map[string]*collection
}

// Options for the sandbox server. Zero values take the defaults below.
type Options struct {
	SigningKey string        // HS256 key for access tokens
	AccessTTL  time.Duration // access token lifetime, default 15m
	RefreshTTL time.Duration // refresh token lifetime, default 30 days
}

func New(logger zerolog.Logger, opts Options) *Server {
	if opts.SigningKey == "" {
		opts.SigningKey = "myhome-sandbox-dev-key"
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}

	s := &Server{
		echo:    echo.New(),
		logger:  logger,
		users:   newUserStore(),
		issuer:  &tokenIssuer{key: []byte(opts.SigningKey), ttl: opts.AccessTTL},
		refresh: newRefreshStore(opts.RefreshTTL),
		data:    make(map[string]*collection),
	}
	for _, name := range resourceNames {
		s.data[name] = newCollection()
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(echomw.Recover())
	s.echo.Use(s.requestLogger())

	s.routes()
	s.seed()
	return s
}

// Handler exposes the sandbox as an http.Handler for httptest servers.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("sandbox backend listening")
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			evt := s.logger.Info()
			if err != nil {
				evt = s.logger.Error().Err(err)
			}
			evt.
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request")
			return err
		}
	}
}

func (s *Server) routes() {
	s.echo.POST("/auth/login", s.handleLogin)
	s.echo.POST("/auth/register", s.handleRegister)
	s.echo.POST("/auth/refresh-token", s.handleRefreshToken)
	s.echo.POST("/auth/logout", s.handleLogout)
	s.echo.GET("/auth/profile", s.handleProfile, s.requireAuth)

	api := s.echo.Group("/api/v1", s.requireAuth)

	api.GET("/users", s.handleListUsers)
	api.GET("/users/:id", s.handleGetUser)
	api.PUT("/users/:id", s.handleUpdateUser)
	api.DELETE("/users/:id", s.handleDeactivateUser)

	for _, name := range resourceNames {
		col := s.data[name]
		scoped := facilityScoped[name]
		base := "/" + name
		api.GET(base, s.handleList(col, scoped))
		api.POST(base, s.handleCreate(col))
		api.GET(base+"/:id", s.handleGet(col))
		api.PUT(base+"/:id", s.handleUpdate(col))
		api.DELETE(base+"/:id", s.handleDelete(col))
	}
}

// seed sets up the fixed development accounts and a small demo dataset.
func (s *Server) seed() {
	admin, err := s.users.create("admin@myhome.com", "password123", "Admin", session.RoleAdmin, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("seed admin account")
		return
	}

	facility := s.data["facilities"].insert(map[string]interface{}{
		"name":     "Sunrise House",
		"capacity": 24,
		"active":   true,
	})
	fid, _ := facility["id"].(string)

	s.users.create("caregiver@myhome.com", "password123", "Casey Caregiver", session.RoleCaregiver, &fid)

	resident := s.data["residents"].insert(map[string]interface{}{
		"facility_id": fid,
		"first_name":  "Rose",
		"last_name":   "Martin",
		"room_number": "12A",
		"active":      true,
	})
	rid, _ := resident["id"].(string)

	s.data["medications"].insert(map[string]interface{}{
		"resident_id":    rid,
		"name":           "Lisinopril",
		"dosage":         "10mg",
		"frequency":      "twice daily",
		"schedule_times": []string{"08:00", "20:00"},
		"active":         true,
		"prescribed_by":  admin.Name,
	})
}

// -- envelope helpers --

func respond(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, map[string]interface{}{"success": true, "data": data})
}

func respondErr(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]interface{}{"success": false, "error": msg})
}

// -- auth --

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return respondErr(c, http.StatusUnauthorized, "missing authorization header")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return respondErr(c, http.StatusUnauthorized, "invalid authorization format")
		}
		userID, err := s.issuer.verify(parts[1])
		if err != nil {
			return respondErr(c, http.StatusUnauthorized, "invalid or expired token")
		}
		user, ok := s.users.get(userID)
		if !ok || !user.IsActive {
			return respondErr(c, http.StatusUnauthorized, "account not found or deactivated")
		}
		c.Set("user", user)
		return next(c)
	}
}

func currentUser(c echo.Context) *session.User {
	u, _ := c.Get("user").(*session.User)
	return u
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "malformed request body")
	}
	user, err := s.users.authenticate(req.Email, req.Password)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, err.Error())
	}

	now := time.Now()
	access, err := s.issuer.issue(user, now)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "issue access token")
	}
	refresh := s.refresh.issue(user.ID, now)

	return respond(c, http.StatusOK, map[string]interface{}{
		"user": user,
		"tokens": session.Tokens{
			AccessToken:  access,
			RefreshToken: refresh,
		},
	})
}

type registerRequest struct {
	Email      string       `json:"email"`
	Password   string       `json:"password"`
	Name       string       `json:"name"`
	Role       session.Role `json:"role"`
	FacilityID *string      `json:"facility_id,omitempty"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "malformed request body")
	}
	user, err := s.users.create(req.Email, req.Password, req.Name, req.Role, req.FacilityID)
	if err != nil {
		return respondErr(c, http.StatusBadRequest, err.Error())
	}
	// Registration does not log the account in; no tokens are issued.
	return respond(c, http.StatusCreated, map[string]interface{}{"user": user})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefreshToken(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return respondErr(c, http.StatusBadRequest, "refreshToken is required")
	}
	now := time.Now()
	userID, err := s.refresh.validate(req.RefreshToken, now)
	if err != nil {
		return respondErr(c, http.StatusUnauthorized, err.Error())
	}
	user, ok := s.users.get(userID)
	if !ok || !user.IsActive {
		return respondErr(c, http.StatusUnauthorized, "account not found or deactivated")
	}
	access, err := s.issuer.issue(user, now)
	if err != nil {
		return respondErr(c, http.StatusInternalServerError, "issue access token")
	}
	return respond(c, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleLogout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		s.refresh.revoke(req.RefreshToken)
	}
	return respond(c, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (s *Server) handleProfile(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]interface{}{"user": currentUser(c)})
}

// -- users --

func (s *Server) handleListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	users := s.users.list(session.Role(c.QueryParam("role")))
	total := len(users)
	lo, hi := pg.Slice(total)
	return respond(c, http.StatusOK, pagination.NewResponse(users[lo:hi], total, pg.Limit, pg.Offset))
}

func (s *Server) handleGetUser(c echo.Context) error {
	user, ok := s.users.get(c.Param("id"))
	if !ok {
		return respondErr(c, http.StatusNotFound, "user not found")
	}
	return respond(c, http.StatusOK, user)
}

type updateUserRequest struct {
	Name       string       `json:"name"`
	Role       session.Role `json:"role"`
	FacilityID *string      `json:"facility_id"`
	IsActive   *bool        `json:"is_active"`
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	if currentUser(c).Role != session.RoleAdmin {
		return respondErr(c, http.StatusForbidden, "admin role required")
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "malformed request body")
	}
	user, err := s.users.update(c.Param("id"), req.Name, req.Role, req.FacilityID, req.IsActive)
	if err != nil {
		return respondErr(c, http.StatusNotFound, err.Error())
	}
	return respond(c, http.StatusOK, user)
}

func (s *Server) handleDeactivateUser(c echo.Context) error {
	if currentUser(c).Role != session.RoleAdmin {
		return respondErr(c, http.StatusForbidden, "admin role required")
	}
	if err := s.users.deactivate(c.Param("id")); err != nil {
		return respondErr(c, http.StatusNotFound, err.Error())
	}
	return respond(c, http.StatusOK, map[string]bool{"deactivated": true})
}

// -- generic CRUD --

func (s *Server) handleList(col *collection, scoped bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		pg := pagination.FromContext(c)
		filters := map[string]string{}
		for _, key := range []string{"resident_id", "facility_id", "medication_id", "role", "type", "status", "category"} {
			if v := c.QueryParam(key); v != "" {
				filters[key] = v
			}
		}
		// Non-admin roles only see their own facility's records.
		if scoped {
			if u := currentUser(c); u.Role != session.RoleAdmin && u.FacilityID != nil {
				filters["facility_id"] = *u.FacilityID
			}
		}
		items, total := col.list(filters, pg.Limit, pg.Offset)
		return respond(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
}

func (s *Server) handleCreate(col *collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		var item map[string]interface{}
		if err := c.Bind(&item); err != nil || item == nil {
			return respondErr(c, http.StatusBadRequest, "malformed request body")
		}
		return respond(c, http.StatusCreated, col.insert(item))
	}
}

func (s *Server) handleGet(col *collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		item, ok := col.get(c.Param("id"))
		if !ok {
			return respondErr(c, http.StatusNotFound, "not found")
		}
		return respond(c, http.StatusOK, item)
	}
}

func (s *Server) handleUpdate(col *collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		var fields map[string]interface{}
		if err := c.Bind(&fields); err != nil || fields == nil {
			return respondErr(c, http.StatusBadRequest, "malformed request body")
		}
		item, ok := col.update(c.Param("id"), fields)
		if !ok {
			return respondErr(c, http.StatusNotFound, "not found")
		}
		return respond(c, http.StatusOK, item)
	}
}

func (s *Server) handleDelete(col *collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !col.delete(c.Param("id")) {
			return respondErr(c, http.StatusNotFound, "not found")
		}
		return respond(c, http.StatusOK, map[string]bool{"deleted": true})
	}
}
