// Package service 提供运营后台访问令牌的验证功能。
package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/config"
	"github.com/MorseWayne/print_shop/internal/domain"
)

// JWT相关错误定义
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotReady = errors.New("token used before valid")
)

// Claims 定义JWT载荷结构
// 继承jwt.RegisteredClaims以获得标准声明字段
type Claims struct {
	OperatorID int64               `json:"operator_id"`
	Username   string              `json:"username"`
	Role       domain.OperatorRole `json:"role"`
	Type       string              `json:"type"` // 只接受 "access"
	jwt.RegisteredClaims
}

// JWTService 定义JWT服务接口。
// 令牌由外部认证服务签发，这里只负责验证并解析出操作者。
type JWTService interface {
	ValidateAccessToken(tokenString string) (*domain.Operator, error)
}

// jwtService 是JWTService接口的实现
type jwtService struct {
	config *config.Config
	logger *zap.Logger
}

// NewJWTService 创建JWT服务实例
func NewJWTService(cfg *config.Config, logger *zap.Logger) JWTService {
	return &jwtService{
		config: cfg,
		logger: logger,
	}
}

// ValidateAccessToken 验证访问令牌
func (s *jwtService) ValidateAccessToken(tokenString string) (*domain.Operator, error) {
	if s.config.JWT.Secret == "" {
		return nil, ErrInvalidToken
	}

	// 解析令牌
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWT.Secret), nil
	})

	if err != nil {
		// 根据错误类型返回特定错误
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotReady
		}
		s.logger.Warn("token validation failed", zap.Error(err))
		return nil, ErrInvalidToken
	}

	// 提取声明
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// 验证令牌类型
	if claims.Type != "access" {
		s.logger.Warn("token type mismatch",
			zap.String("expected", "access"),
			zap.String("actual", claims.Type),
		)
		return nil, ErrInvalidToken
	}

	// 配置了发行者时才校验
	if iss := s.config.JWT.Issuer; iss != "" && claims.Issuer != iss {
		s.logger.Warn("token issuer mismatch",
			zap.String("expected", iss),
			zap.String("actual", claims.Issuer),
		)
		return nil, ErrInvalidToken
	}

	return &domain.Operator{
		ID:       claims.OperatorID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
