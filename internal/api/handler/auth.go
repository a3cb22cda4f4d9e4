package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"civicledger/backend/internal/apperr"
)

const (
	RoleOfficer = "officer"
	RoleCitizen = "citizen"

	issuer     = "civicledger-service"
	subjectKey = "subject"
	roleKey    = "role"
)

// Claims are the bearer token claims. Subject is the officer id or the
// citizen user id, depending on Role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenIssuer signs and checks HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for subject with the given role.
func (t *TokenIssuer) Issue(subject, role string) (string, error) {
	if subject == "" {
		return "", apperr.Newf(apperr.ErrInvalidInput, "token subject is required")
	}
	if role != RoleOfficer && role != RoleCitizen {
		return "", apperr.Newf(apperr.ErrInvalidInput, "unknown role %q", role)
	}
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates the signature, expiry and issuer of a token.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireRole rejects requests without a valid bearer token for one of roles.
// The token may also come in the "token" query parameter, which is the only
// option for browser WebSocket clients.
func (h *Handler) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid Authorization header format"})
				return
			}
			tokenStr = parts[1]
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token missing"})
			return
		}

		claims, err := h.Tokens.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token or expired"})
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Set(subjectKey, claims.Subject)
				c.Set(roleKey, claims.Role)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied for this role"})
	}
}

func subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// OfficerLogin checks the bcrypt password hash and returns an officer token.
func (h *Handler) OfficerLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required."})
		return
	}

	officer, err := h.Officers.GetOfficerByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		h.fail(c, err)
		return
	}
	if officer == nil || officer.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(officer.PasswordHash), []byte(req.Password)) != nil {
		h.Log.WithField("email", req.Email).Info("Officer login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"message": h.message(c, "login_failed"), "success": false})
		return
	}

	token, err := h.Tokens.Issue(officer.OfficerID, RoleOfficer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"name":       officer.Name,
		"officer_id": officer.OfficerID,
	})
}
