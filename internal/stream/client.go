// Package stream 实现看板事件流（SSE）的客户端。
//
// 连接一旦建立就持续读取命名事件 patch / hello / heartbeat，
// 其余事件名与无法解析为 JSON 对象的负载一律静默丢弃。
// 断线不自动重连，重连节奏由调用方掌握（通过 Done 感知退出）。
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/pkg/metrics"
)

const (
	streamPath    = "/api/v1/dashboard/stream"
	defaultTopics = "home"

	// 单行上限 1MB，防止异常负载撑爆内存
	maxLineSize = 1 << 20
)

// namedEvents 是客户端会分发的事件名，其余一律忽略。
var namedEvents = map[string]struct{}{
	"patch":     {},
	"hello":     {},
	"heartbeat": {},
}

// Options 是一次事件流连接的配置。
type Options struct {
	BaseURL string                     // 后端基础地址（与请求客户端共用）
	Topics  string                     // 订阅主题，空时为 "home"
	Token   string                     // 认证令牌，空时不携带
	Client  *http.Client               // 可选；默认不带超时（长连接）
	Logger  *slog.Logger               // 可选
	OnEvent func(model.DashboardEvent) // 必填，每条有效事件回调一次
	OnOpen  func()                     // 可选，连接建立后回调一次
	OnError func(error)                // 可选，读取中断时回调
}

// Handle 代表一条已建立的事件流连接。
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close 主动断开连接。读取协程退出后 Done 关闭。
func (h *Handle) Close() {
	h.cancel()
}

// Done 在读取协程退出后关闭（无论主动关闭还是对端断开）。
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Open 建立事件流连接。
//
// 连接失败（含 HTTP 非 200）直接返回错误；成功后先回调 OnOpen，
// 再在后台协程里持续读取直到 ctx 取消、Close 或对端断开。
func Open(ctx context.Context, opts Options) (*Handle, error) {
	if opts.OnEvent == nil {
		return nil, errors.New("stream: OnEvent is required")
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildStreamURL(opts.BaseURL, opts.Topics, opts.Token), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("connect stream: http status %d", resp.StatusCode)
	}

	if opts.OnOpen != nil {
		opts.OnOpen()
	}

	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer resp.Body.Close()

		err := readLoop(resp.Body, opts)
		if err != nil && ctx.Err() == nil && opts.OnError != nil {
			opts.OnError(err)
		}
	}()
	return h, nil
}

// buildStreamURL 拼出事件流地址。
//
// 正常情况把固定路径接在基础地址后；基础地址无法解析时退化为
// 裸路径（交给默认解析，与快照接口走同一套改写规则）。
func buildStreamURL(base, topics, token string) string {
	if topics == "" {
		topics = defaultTopics
	}

	target := strings.TrimSuffix(base, "/") + streamPath
	if _, err := url.Parse(target); err != nil {
		target = streamPath
	}

	params := url.Values{}
	params.Set("topics", topics)
	if token != "" {
		params.Set("token", token)
	}
	return target + "?" + params.Encode()
}

// readLoop 按 SSE 文本协议逐行解析：event: / data: 行累积，
// 空行触发分发，":" 开头的注释行与其他字段（如 id:）忽略。
func readLoop(body io.Reader, opts Options) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var eventName string
	var data []string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			dispatch(eventName, strings.Join(data, "\n"), opts)
			eventName, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "event":
			eventName = value
		case "data":
			data = append(data, value)
		}
	}
	return scanner.Err()
}

// splitField 拆出 "field: value" 的字段名与值（值前至多去掉一个空格）。
func splitField(line string) (string, string) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return line, ""
	}
	value := line[i+1:]
	value = strings.TrimPrefix(value, " ")
	return line[:i], value
}

// dispatch 解析并分发一条事件；任何不合规的输入都静默丢弃。
func dispatch(eventName, raw string, opts Options) {
	if _, ok := namedEvents[eventName]; !ok {
		return
	}
	if raw == "" {
		metrics.StreamDroppedTotal.Inc()
		return
	}

	var evt model.DashboardEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil || !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		metrics.StreamDroppedTotal.Inc()
		if opts.Logger != nil {
			opts.Logger.Debug("dropped malformed stream event", slog.String("event", eventName))
		}
		return
	}

	metrics.StreamEventTotal.WithLabelValues(eventName).Inc()
	opts.OnEvent(evt)
}
