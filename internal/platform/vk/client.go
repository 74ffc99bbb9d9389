package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"contest-tool-backend/internal/common/config"
	"contest-tool-backend/internal/common/logger"
)

// Коды ошибок VK API
const (
	codeTooManyRequests = 6
	codeFloodControl    = 9
	codeRateLimit       = 29
	codeCantSendToUser  = 901
	codeCantSendPrivacy = 902
)

// APIError ошибка, которую вернул VK API
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// InboxClosedError пользователь не принимает личные сообщения от сообщества
type InboxClosedError struct {
	APIError
}

func (e *InboxClosedError) Error() string {
	return fmt.Sprintf("inbox closed: %s", e.Message)
}

// RateLimitError превышен лимит запросов
type RateLimitError struct {
	APIError
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s", e.Message)
}

// IsInboxClosed проверяет, что ошибка означает закрытые личные сообщения
func IsInboxClosed(err error) bool {
	var inboxErr *InboxClosedError
	return errors.As(err, &inboxErr)
}

func IsRateLimit(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string
	log        zerolog.Logger
}

func NewClient(cfg *config.Config) *Client {
	return NewClientWithURL(cfg.VK.BaseURL, cfg.VK.Token, cfg.VK.APIVersion, cfg.VK.Timeout)
}

func NewClientWithURL(baseURL, token, version string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		version:    version,
		log:        logger.Component("vk"),
	}
}

// SendMessage отправляет личное сообщение пользователю от имени сообщества
func (c *Client) SendMessage(ctx context.Context, userID int64, text string) (int64, error) {
	params := url.Values{
		"user_id":   {strconv.FormatInt(userID, 10)},
		"random_id": {strconv.FormatInt(int64(int32(uuid.New().ID())), 10)},
		"message":   {text},
	}

	var messageID int64
	if err := c.call(ctx, "messages.send", params, &messageID); err != nil {
		return 0, fmt.Errorf("failed to send message to %d: %w", userID, err)
	}

	c.log.Debug().Int64("user_id", userID).Int64("message_id", messageID).Msg("Message sent")
	return messageID, nil
}

// CreateComment оставляет комментарий под постом от имени сообщества.
// replyTo > 0 делает комментарий ответом на комментарий участника.
func (c *Client) CreateComment(ctx context.Context, ownerID, postID, replyTo int64, text string) (int64, error) {
	params := url.Values{
		"owner_id": {strconv.FormatInt(ownerID, 10)},
		"post_id":  {strconv.FormatInt(postID, 10)},
		"message":  {text},
	}
	if ownerID < 0 {
		params.Set("from_group", strconv.FormatInt(-ownerID, 10))
	}
	if replyTo > 0 {
		params.Set("reply_to_comment", strconv.FormatInt(replyTo, 10))
	}

	var response struct {
		CommentID int64 `json:"comment_id"`
	}
	if err := c.call(ctx, "wall.createComment", params, &response); err != nil {
		return 0, fmt.Errorf("failed to comment post %d_%d: %w", ownerID, postID, err)
	}

	return response.CommentID, nil
}

// PublishPost публикует пост на стене сообщества и возвращает ссылку на него
func (c *Client) PublishPost(ctx context.Context, groupID int64, text string) (string, error) {
	ownerID := -groupID
	params := url.Values{
		"owner_id":   {strconv.FormatInt(ownerID, 10)},
		"from_group": {"1"},
		"message":    {text},
	}

	var response struct {
		PostID int64 `json:"post_id"`
	}
	if err := c.call(ctx, "wall.post", params, &response); err != nil {
		return "", fmt.Errorf("failed to publish post in group %d: %w", groupID, err)
	}

	return PostURL(ownerID, response.PostID), nil
}

// PostURL ссылка на пост стены
func PostURL(ownerID, postID int64) string {
	return fmt.Sprintf("https://vk.com/wall%d_%d", ownerID, postID)
}

func (c *Client) call(ctx context.Context, method string, params url.Values, result interface{}) error {
	params.Set("access_token", c.token)
	params.Set("v", c.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{APIError{Code: resp.StatusCode, Message: "too many requests"}}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *APIError       `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if envelope.Error != nil {
		return classify(envelope.Error)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Response, result); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}

	return nil
}

func classify(apiErr *APIError) error {
	switch apiErr.Code {
	case codeCantSendToUser, codeCantSendPrivacy:
		return &InboxClosedError{*apiErr}
	case codeTooManyRequests, codeFloodControl, codeRateLimit:
		return &RateLimitError{*apiErr}
	default:
		return apiErr
	}
}
