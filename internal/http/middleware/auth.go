package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/skillsdna-backend/internal/http/response"
	"github.com/yungbote/skillsdna-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

// AuthorClaims are the claims accepted on authoring routes.
type AuthorClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

// NewAuthMiddleware returns nil when secret is empty; the router then leaves authoring routes open.
func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), secret: []byte(secret)}
}

func (am *AuthMiddleware) RequireAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		claims, err := am.parse(tokenString)
		if err != nil {
			am.log.Debug("rejected authoring token", "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		ctx := ctxutil.WithAuthor(c.Request.Context(), &ctxutil.Author{Subject: claims.Subject, Role: claims.Role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) parse(tokenString string) (*AuthorClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AuthorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*AuthorClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
