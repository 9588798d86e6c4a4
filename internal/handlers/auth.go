package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Bessima/orderflow/internal/handlers/schemas"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	defaultAccessTokenTTL = 24 * time.Hour
)

type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL time.Duration
}

// AuthHandler выпускает и проверяет токены. Учётные записи ведутся вне сервиса,
// пользователь восстанавливается из claims.
type AuthHandler struct {
	jwtConfig *JWTConfig
}

func NewAuthHandler(jwtConfig *JWTConfig) *AuthHandler {
	if jwtConfig.AccessTokenTTL == 0 {
		jwtConfig.AccessTokenTTL = defaultAccessTokenTTL
	}
	return &AuthHandler{jwtConfig: jwtConfig}
}

// MeHandler возвращает пользователя текущего токена.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}
	writeJSON(w, http.StatusOK, Notice{Level: LevelInfo, Message: fmt.Sprintf("signed in as %s", user.Username)}, user)
}

func (h *AuthHandler) GenerateToken(user *models.User) (*schemas.TokenResponse, error) {
	now := time.Now()
	expiresAt := now.Add(h.jwtConfig.AccessTokenTTL)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtConfig.SecretKey))
	if err != nil {
		return nil, err
	}
	return &schemas.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt.Unix(),
	}, nil
}

func (h *AuthHandler) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(h.jwtConfig.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("token has no user")
	}

	return claims, nil
}

// UserFromClaims восстанавливает пользователя из проверенного токена.
func UserFromClaims(claims *Claims) *models.User {
	return &models.User{ID: claims.UserID, Username: claims.Username}
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext извлекает пользователя из контекста
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}
