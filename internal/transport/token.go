package transport

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource 提供当前可用的访问令牌，空串表示无令牌。
type TokenSource interface {
	Token() string
}

// StaticToken 是固定令牌。
type StaticToken string

// Token 返回固定令牌。
func (t StaticToken) Token() string { return string(t) }

// TokenFunc 把函数适配为 TokenSource。
type TokenFunc func() string

// Token 调用底层函数。
func (f TokenFunc) Token() string { return f() }

// JWTGuard 包装一个 TokenSource，在令牌形如 JWT 时检查其 exp 声明，
// 已过期的令牌不再注入（只做不校验签名的解析，签名验证是后端的事）。
//
// 非 JWT 令牌原样透传。
type JWTGuard struct {
	source TokenSource
	logger *slog.Logger
	warned atomic.Bool
}

// NewJWTGuard 创建令牌过期保护。
func NewJWTGuard(source TokenSource, logger *slog.Logger) *JWTGuard {
	return &JWTGuard{source: source, logger: logger}
}

// Token 返回底层令牌；JWT 且已过期时返回空串。
func (g *JWTGuard) Token() string {
	if g == nil || g.source == nil {
		return ""
	}
	raw := g.source.Token()
	if raw == "" {
		return ""
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		// 不是 JWT，当作不透明令牌使用
		return raw
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return raw
	}
	if time.Now().After(exp.Time) {
		if g.warned.CompareAndSwap(false, true) && g.logger != nil {
			g.logger.Warn("access token expired, requests will go unauthenticated",
				slog.Time("expired_at", exp.Time))
		}
		return ""
	}
	g.warned.Store(false)
	return raw
}
