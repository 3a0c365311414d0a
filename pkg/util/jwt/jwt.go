// Package jwt 签发与校验访问令牌
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer         = "loopline"
	subjectAccess  = "access_token"
	defaultExpires = time.Hour
)

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// 全局配置，由 Init 函数初始化
var jwtConfig = &JWTConfig{AccessTokenExpiry: defaultExpires}

// Init 初始化 JWT 配置
func Init(secret string, accessExpiryMinutes int) {
	expiry := time.Duration(accessExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = defaultExpires
	}
	jwtConfig = &JWTConfig{Secret: secret, AccessTokenExpiry: expiry}
}

// Claims 自定义 JWT 声明
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken 生成 Access Token
func GenerateAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtConfig.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subjectAccess,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.Secret))
}

// ParseToken 解析并验证 Access Token
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtConfig.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject != subjectAccess || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
