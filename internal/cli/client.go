package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// errorBody — дублирует api.ErrorBody: CLI не импортирует internal/api,
// чтобы не тянуть за собой Store Gateway и остальную серверную сборку.
type errorBody struct {
	Message   string `json:"message"`
	Reference string `json:"reference"`
}

// StatusResult — тело ответа GET /message.
type StatusResult struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// Client — HTTP-клиент внешнего контракта прокси.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для заданного base URL API-процесса.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Submit отправляет POST /submit с заданными routing-заголовками, методом
// и телом и возвращает id из заголовка ответа X-Activity.
func (c *Client) Submit(targetURL, replyURL, replyMethod, method string, body []byte) (string, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/submit", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Url", targetURL)
	req.Header.Set("X-Reply", replyURL)
	req.Header.Set("X-ReplyMethod", replyMethod)
	if method != "" {
		req.Method = method
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", c.readError(resp)
	}

	id := resp.Header.Get("X-Activity")
	if id == "" {
		return "", fmt.Errorf("submit: response missing X-Activity header")
	}
	return id, nil
}

// Status выполняет GET /message?id=<id> и возвращает текущее state.
func (c *Client) Status(id string) (*StatusResult, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/message?id="+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.readError(resp)
	}

	var result StatusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &result, nil
}

func (c *Client) readError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Message == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("%s (reference: %s)", eb.Message, eb.Reference)
}
