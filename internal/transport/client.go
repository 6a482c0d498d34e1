// Package transport 实现访问后端的通用请求客户端。
//
// 所有接口共用 {code, msg, data} 返回结构；除固定的公开路径外，
// 请求都会注入 Authorization 头。网络层错误以 error 返回，
// 业务层失败（code != 200）不视为 error，由调用方检查 Code。
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/config"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/pkg/metrics"

	"golang.org/x/time/rate"
)

// maxResponseSize 限制单次响应体大小（10MB），防止异常负载耗尽内存。
const maxResponseSize = 10 * 1024 * 1024

// publicPaths 是无需携带令牌的公开路径前缀。
var publicPaths = []string{
	"/user/login",
	"/user/register",
	"/user/sendEmailCode",
	"/user/forget",
	"/user/judgeIfExist",
}

// Client 是后端请求客户端。
//
// 它持有基础地址、HTTP 客户端、令牌来源与可选的上游限流器。
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient 创建请求客户端。
//
// 参数:
//
//	cfg: 后端访问配置
//	logger: 日志记录器
//	tokens: 令牌来源（可为 nil，表示匿名访问）
func NewClient(cfg *config.BackendConfig, logger *slog.Logger, tokens TokenSource) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		limiter: limiter,
		logger:  logger,
	}
}

// BaseURL 返回配置的后端基础地址（事件流客户端共用它，
// 保证反向代理路径改写的一致性）。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// isPublicPath 判断路径是否在免认证白名单内。
func isPublicPath(path string) bool {
	clean := path
	if i := strings.IndexByte(clean, '?'); i >= 0 {
		clean = clean[:i]
	}
	for _, prefix := range publicPaths {
		if strings.HasPrefix(clean, prefix) {
			return true
		}
	}
	return false
}

// Do 发送一次请求并把响应体解析为统一的 Envelope。
//
// GET/DELETE 使用查询参数，其余方法把 body 序列化为 JSON。
// HTTP 层非 2xx 时仍尝试解析 Envelope（后端把业务码放在响应体里）。
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body any) (model.Envelope, error) {
	var envelope model.Envelope
	if err := c.request(ctx, method, path, params, body, &envelope); err != nil {
		return model.Envelope{}, err
	}
	return envelope, nil
}

// Get 是 Do 的 GET 便捷形式。
func (c *Client) Get(ctx context.Context, path string, params url.Values) (model.Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, params, nil)
}

// Post 是 Do 的 POST 便捷形式。
func (c *Client) Post(ctx context.Context, path string, params url.Values, body any) (model.Envelope, error) {
	return c.Do(ctx, http.MethodPost, path, params, body)
}

// GetInto 发送 GET 请求并把完整响应体解码到 out。
//
// 供返回结构不是标准 Envelope 的接口使用（如看板快照）。
func (c *Client) GetInto(ctx context.Context, path string, params url.Values, out any) error {
	return c.request(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) request(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil && !isPublicPath(path) {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestTotal.WithLabelValues(path, "error").Inc()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		metrics.UpstreamRequestTotal.WithLabelValues(path, "error").Inc()
		return fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		metrics.UpstreamRequestTotal.WithLabelValues(path, "error").Inc()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%s %s: http status %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("decode response of %s %s: %w", method, path, err)
	}

	metrics.UpstreamRequestTotal.WithLabelValues(path, "ok").Inc()
	return nil
}
