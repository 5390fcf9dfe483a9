package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/travelfeed/pkg/response"
)

const ctxUserID = "user_id"

// Claims 访问令牌载荷
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Auth 校验 Bearer 令牌，把 uid 写入上下文
func Auth(secret, issuer string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		uid, err := parseToken(c.GetHeader("Authorization"), key, issuer)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(ctxUserID, uid)
		c.Next()
	}
}

func parseToken(header string, key []byte, issuer string) (string, error) {
	h := strings.TrimSpace(header)
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("token expired")
		}
		return "", errors.New("invalid token")
	}
	if !tok.Valid {
		return "", errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return "", errors.New("invalid issuer")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return "", errors.New("missing uid")
	}
	return claims.UserID, nil
}

// IssueToken 签发 HS256 令牌（seeder 与测试使用）
func IssueToken(secret, issuer, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// UserID 读取当前登录用户
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
