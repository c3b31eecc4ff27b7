package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaiso/relaygate/internal/domain"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// httpClient — общий клиент для вызовов target и reply URL.
// Таймаут на запрос задаётся через context, не через client.Timeout,
// чтобы не делить один http.Client между несколькими таймаутами.
var httpClient = &http.Client{}

// buildTargetRequest строит запрос к target из сохранённых полей Activity,
// воспроизводя исходный запрос как есть.
func buildTargetRequest(ctx context.Context, a *domain.Activity) (*http.Request, error) {
	var body io.Reader
	if len(a.Payload) > 0 {
		body = bytes.NewReader(a.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build target request: %w", err)
	}
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}
	if a.ContentType != "" {
		req.Header.Set("Content-Type", a.ContentType)
	}
	return req, nil
}

// buildReplyRequest строит запрос на reply URL из сохранённого Response.
// X-TaskId позволяет получателю сопоставить ответ с исходной activity
// независимо от тела.
func buildReplyRequest(ctx context.Context, a *domain.Activity, resp *domain.Response) (*http.Request, error) {
	var body io.Reader
	if len(resp.Payload) > 0 {
		body = bytes.NewReader(resp.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, a.ReplyMethod, a.ReplyURL, body)
	if err != nil {
		return nil, fmt.Errorf("build reply request: %w", err)
	}
	for k, v := range resp.Headers {
		req.Header.Set(k, v)
	}
	if resp.ContentType != "" {
		req.Header.Set("Content-Type", resp.ContentType)
	}
	req.Header.Set("X-TaskId", a.ID.String())
	return req, nil
}

// doRequest выполняет запрос и возвращает статус, заголовки и тело ответа.
// Любая ошибка транспортного уровня (DNS, connect, timeout, context
// deadline) оборачивается в ErrTransport.
func doRequest(req *http.Request) (status int, headers map[string]string, body []byte, contentType string, err error) {
	resp, doErr := httpClient.Do(req)
	if doErr != nil {
		return 0, nil, nil, "", fmt.Errorf("%w: %v", ErrTransport, doErr)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		return 0, nil, nil, "", fmt.Errorf("%w: read body: %v", ErrTransport, readErr)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		respHeaders[key] = resp.Header.Get(key)
	}

	return resp.StatusCode, respHeaders, respBody, resp.Header.Get("Content-Type"), nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultHTTPTimeout)
}
