package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/middleware"
	"github.com/go-authgate/idgate/internal/models"
	"github.com/go-authgate/idgate/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(as *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

type signInRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ldapSignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Name     string `json:"name"     binding:"required"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// SignIn handles POST /auth/signin with local credentials
//
//	@Summary		Sign in with email and password
//	@Description	Authenticate a local account and issue a Bearer token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		handlers.signInRequest	true	"Local credentials"
//	@Success		200		{object}	handlers.tokenResponse	"Token issued"
//	@Failure		400		{object}	object{error=string}	"Invalid request body"
//	@Failure		401		{object}	object{error=string}	"Invalid credentials"
//	@Failure		429		{object}	object{error=string}	"Rate limit exceeded"
//	@Failure		500		{object}	object{error=string}	"Internal server error"
//	@Router			/auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "a valid email and a password are required")
		return
	}

	result, err := h.authService.SignIn(
		c.Request.Context(),
		models.AuthProviderLocal,
		req.Email,
		req.Password,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(result))
}

// LDAPSignIn handles POST /auth/ldap/signin against the directory
//
//	@Summary		Sign in with directory credentials
//	@Description	Bind against LDAP / Active Directory, synchronize the account and issue a Bearer token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		handlers.ldapSignInRequest	true	"Directory credentials"
//	@Success		200		{object}	handlers.tokenResponse		"Token issued; is_new_user is set"
//	@Failure		400		{object}	object{error=string}		"Invalid request body or LDAP not configured"
//	@Failure		401		{object}	object{error=string}		"Invalid credentials"
//	@Failure		409		{object}	object{error=string}		"Email owned by another provider"
//	@Failure		429		{object}	object{error=string}		"Rate limit exceeded"
//	@Router			/auth/ldap/signin [post]
func (h *AuthHandler) LDAPSignIn(c *gin.Context) {
	var req ldapSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "username and password are required")
		return
	}

	result, err := h.authService.SignIn(
		c.Request.Context(),
		models.AuthProviderDirectory,
		req.Username,
		req.Password,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newTokenResponse(result)
	resp.IsNewUser = &result.IsNew
	c.JSON(http.StatusOK, resp)
}

// Register handles POST /auth/admin/register. The route is guarded by
// RequireAuth and RequireAdmin.
//
//	@Summary		Register a local user
//	@Description	Create a local account (administrators only)
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		handlers.registerRequest								true	"New account"
//	@Success		201		{object}	object{message=string,user=models.UserResponse}	"User registered"
//	@Failure		400		{object}	object{error=string}									"Validation error"
//	@Failure		401		{object}	object{error=string}									"Missing or invalid token"
//	@Failure		403		{object}	object{error=string}									"Administrator privileges required"
//	@Failure		409		{object}	object{error=string}									"Email already registered"
//	@Router			/auth/admin/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "name, a valid email and a password are required")
		return
	}

	user, err := h.authService.Register(
		c.Request.Context(),
		req.Name,
		req.Email,
		req.Password,
		req.Role,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	if admin := models.GetUserFromContext(c); admin != nil {
		log.Printf("[Auth] %s registered user %s", admin.ID, user.ID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user.ToResponse(),
	})
}

// Verify handles POST /auth/verify. Every failure, including a deleted
// account behind a valid signature, answers 403 with valid=false.
//
//	@Summary		Verify a token
//	@Description	Validate signature, issuer and expiry, then confirm the account is still active
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		handlers.verifyRequest											true	"Token to verify"
//	@Success		200		{object}	object{valid=bool,user_id=string,email=string,role=string,message=string}	"Token is valid"
//	@Failure		400		{object}	object{error=string}											"Invalid request body"
//	@Failure		403		{object}	object{valid=bool,error=string}									"Token invalid or account inactive"
//	@Router			/auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "token is required")
		return
	}

	user, err := h.authService.Verify(c.Request.Context(), req.Token)
	if err != nil {
		if core.KindOf(err) == core.KindInternal {
			respondError(c, err)
			return
		}
		message := "Invalid or expired token"
		if errors.Is(err, services.ErrUserInactive) {
			message = core.PublicMessage(err)
		}
		c.JSON(http.StatusForbidden, gin.H{
			"valid": false,
			"error": message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"message": "User is registered and token is valid",
	})
}

// GoogleLogin handles GET /auth/google/login. The state is returned to the
// caller and kept in the session for the callback.
//
//	@Summary		Start Google sign-in
//	@Description	Build the Google authorization URL and store the anti-forgery state in the session cookie
//	@Tags			Google
//	@Produce		json
//	@Success		200	{object}	object{authorization_url=string,state=string}	"Authorization URL"
//	@Failure		400	{object}	object{error=string}							"Google OAuth not configured"
//	@Router			/auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	authURL, state, err := h.authService.GoogleAuthorizationURL()
	if err != nil {
		respondError(c, err)
		return
	}

	if err := middleware.SaveOAuthState(c, state); err != nil {
		respondError(c, core.Internal("failed to save oauth state", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorization_url": authURL,
		"state":             state,
	})
}

// GoogleCallback handles GET /auth/google/callback?code=&state=
//
//	@Summary		Complete Google sign-in
//	@Description	Check the state, exchange the code and sign in or create the account
//	@Tags			Google
//	@Produce		json
//	@Param			code	query		string					true	"Authorization code"
//	@Param			state	query		string					true	"State returned by /auth/google/login"
//	@Success		200		{object}	handlers.tokenResponse	"Token issued; is_new_user is set"
//	@Failure		400		{object}	object{error=string}	"Invalid state, unverified email or OAuth failure"
//	@Failure		409		{object}	object{error=string}	"Email owned by another provider"
//	@Router			/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if !h.authService.GoogleEnabled() {
		respondError(c, core.NotConfigured("Google OAuth"))
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		log.Printf("[OAuth] Google returned error: %s", errParam)
		respondError(c, core.OAuth("authorization was denied or failed"))
		return
	}

	if err := middleware.ConsumeOAuthState(c, c.Query("state")); err != nil {
		if errors.Is(err, middleware.ErrOAuthStateMismatch) {
			log.Printf("[OAuth] State mismatch from %s", c.ClientIP())
			respondError(c, core.OAuth("invalid oauth state"))
			return
		}
		respondError(c, core.Internal("failed to read oauth state", err))
		return
	}

	code := c.Query("code")
	if code == "" {
		respondError(c, core.OAuth("missing authorization code"))
		return
	}

	result, err := h.authService.GoogleCallback(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newTokenResponse(result)
	resp.IsNewUser = &result.IsNew
	c.JSON(http.StatusOK, resp)
}

// Me handles GET /auth/me, returning the user record re-read by RequireAuth
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	models.UserResponse		"Current user"
//	@Failure		401	{object}	object{error=string}	"Missing or invalid token"
//	@Router			/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := models.GetUserFromContext(c)
	if user == nil {
		respondError(c, core.Unauthorized("authentication required"))
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}
