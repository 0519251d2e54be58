package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// StatusResponse — состояние engine из API.
type StatusResponse struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Index     int    `json:"index"`
	Step      string `json:"step"`
	Cycle     int    `json:"cycle"`
	StepCount int    `json:"step_count"`
}

// FrameResponse — показанный кадр из API.
type FrameResponse struct {
	Kind     string           `json:"kind"`
	Step     string           `json:"step"`
	Duration time.Duration    `json:"duration"`
	Tweet    *TweetResponse   `json:"tweet,omitempty"`
	Sessions []map[string]any `json:"sessions,omitempty"`
	Words    []map[string]any `json:"words,omitempty"`
}

// EngineResponse — состояние engine и последний кадр.
type EngineResponse struct {
	Status StatusResponse `json:"status"`
	Frame  *FrameResponse `json:"frame,omitempty"`
}

// TweetResponse — сообщение из API.
type TweetResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	User struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	CreatedAt string `json:"created_at"`
}

// SlotResponse — слот расписания из API.
type SlotResponse struct {
	ID        string         `json:"id"`
	Room      string         `json:"room"`
	BeginsAt  string         `json:"begins_at"`
	EndsAt    string         `json:"ends_at"`
	Favorites int            `json:"favorites"`
	Talk      map[string]any `json:"talk,omitempty"`
}

// --- Request types ---

// PostTweetRequest — сообщение для стены.
type PostTweetRequest struct {
	Text string `json:"text"`
	User struct {
		Name       string `json:"name,omitempty"`
		ScreenName string `json:"screen_name,omitempty"`
	} `json:"user"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для admin API стены.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Engine ---

// Engine возвращает состояние engine.
func (c *Client) Engine(ctx context.Context) (*EngineResponse, error) {
	var resp EngineResponse
	err := c.get(ctx, "/api/v1/engine", &resp)
	return &resp, err
}

// StartEngine запускает engine.
func (c *Client) StartEngine(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	err := c.post(ctx, "/api/v1/engine/start", nil, &status)
	return &status, err
}

// StopEngine просит engine остановиться.
func (c *Client) StopEngine(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	err := c.post(ctx, "/api/v1/engine/stop", nil, &status)
	return &status, err
}

// Frames возвращает последние показанные кадры.
func (c *Client) Frames(ctx context.Context) ([]FrameResponse, error) {
	var frames []FrameResponse
	err := c.list(ctx, "/api/v1/frames", &frames)
	return frames, err
}

// --- Tweets ---

// PostTweet отправляет сообщение на стену.
func (c *Client) PostTweet(ctx context.Context, req PostTweetRequest) (*TweetResponse, error) {
	var tweet TweetResponse
	err := c.post(ctx, "/api/v1/tweets", req, &tweet)
	return &tweet, err
}

// --- Slots ---

// GetSlot возвращает слот расписания.
func (c *Client) GetSlot(ctx context.Context, id string) (*SlotResponse, error) {
	var slot SlotResponse
	err := c.get(ctx, "/api/v1/slots/"+id, &slot)
	return &slot, err
}

// SaveSlot создаёт или обновляет слот.
func (c *Client) SaveSlot(ctx context.Context, slot json.RawMessage) (*SlotResponse, error) {
	var saved SlotResponse
	err := c.put(ctx, "/api/v1/slots", slot, &saved)
	return &saved, err
}

// SetFavorites обновляет счётчик избранного слота.
func (c *Client) SetFavorites(ctx context.Context, id string, favorites int) error {
	body := map[string]int{"favorites": favorites}
	return c.put(ctx, "/api/v1/slots/"+id+"/favorites", body, nil)
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPut, path, body, result)
}

func (c *Client) list(ctx context.Context, path string, result any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
