package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tg-link-service/internal/domain"
)

// TenantPlaceholder подставляется в шаблон URL партнерского API
const TenantPlaceholder = "{tenant}"

// DefaultURLPattern - адрес партнерского API по умолчанию
const DefaultURLPattern = "https://ibronevik.ru/taxi/c/" + TenantPlaceholder + "/api/v1/"

// maxResponseBytes ограничивает размер читаемого ответа
const maxResponseBytes = 4 << 20

// PartnerClientConfig настройки клиента партнерского API
type PartnerClientConfig struct {
	// URLPattern - базовый URL, TenantPlaceholder заменяется на ID тенанта
	URLPattern string
	// HTTPClient несет общий таймаут всех запросов. Если nil - http.DefaultClient.
	HTTPClient *http.Client
	// Logger, если nil - slog.Default()
	Logger *slog.Logger
}

// PartnerClient работает с партнерским API от имени всех тенантов
type PartnerClient struct {
	tenants    *domain.TenantRegistry
	sessions   *SessionStore
	urlPattern string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPartnerClient создает клиента; сессии пишутся в переданное хранилище
func NewPartnerClient(tenants *domain.TenantRegistry, sessions *SessionStore, cfg PartnerClientConfig) (*PartnerClient, error) {
	if tenants == nil {
		return nil, fmt.Errorf("partner: tenant registry is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("partner: session store is required")
	}

	pattern := cfg.URLPattern
	if pattern == "" {
		pattern = DefaultURLPattern
	}
	if !strings.Contains(pattern, TenantPlaceholder) {
		return nil, fmt.Errorf("partner: URL pattern %q has no %s placeholder", pattern, TenantPlaceholder)
	}
	if _, err := url.Parse(strings.ReplaceAll(pattern, TenantPlaceholder, "x")); err != nil {
		return nil, fmt.Errorf("partner: invalid URL pattern %q: %w", pattern, err)
	}
	if !strings.HasSuffix(pattern, "/") {
		pattern += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PartnerClient{
		tenants:    tenants,
		sessions:   sessions,
		urlPattern: pattern,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Sessions возвращает хранилище сессий клиента
func (c *PartnerClient) Sessions() *SessionStore {
	return c.sessions
}

// Status - число тенантов и тенантов с активной сессией
func (c *PartnerClient) Status() (tenants, authenticated int) {
	for _, id := range c.tenants.IDs() {
		if _, ok := c.sessions.Get(id); ok {
			authenticated++
		}
	}
	return c.tenants.Len(), authenticated
}

// AuthenticateAll параллельно авторизует все тенанты и ждет завершения каждого.
// Ошибка одного тенанта не влияет на остальные; прежняя сессия при ошибке
// сохраняется. Повторов нет.
func (c *PartnerClient) AuthenticateAll(ctx context.Context) []domain.TenantAuthResult {
	ids := c.tenants.IDs()
	results := make([]domain.TenantAuthResult, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()

			tenant, _ := c.tenants.Get(id)
			results[i] = domain.TenantAuthResult{TenantID: id}

			c.logger.Info("authenticating tenant", "tenant", id)
			session, err := c.authenticate(ctx, tenant)
			if err != nil {
				c.logger.Error("tenant auth failed", "tenant", id, "error", err)
				results[i].Error = err.Error()
				return
			}

			c.sessions.Put(session)
			results[i].Authenticated = true
			c.logger.Info("tenant auth success", "tenant", id)
		}(i, id)
	}
	wg.Wait()

	return results
}

// authenticate - двухшаговое рукопожатие: auth -> auth_hash, token -> token + u_hash
func (c *PartnerClient) authenticate(ctx context.Context, tenant domain.Tenant) (domain.Session, error) {
	form := url.Values{}
	form.Set("login", tenant.Login)
	form.Set("password", tenant.Password)
	form.Set("type", tenant.Type)

	body, err := c.doForm(ctx, tenant.ID, "auth", form)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth request: %w", err)
	}
	var authResp domain.AuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return domain.Session{}, fmt.Errorf("parse auth response: %w", err)
	}
	if authResp.AuthHash == "" {
		return domain.Session{}, fmt.Errorf("can't get auth_hash from /auth")
	}

	form = url.Values{}
	form.Set("auth_hash", authResp.AuthHash)

	body, err = c.doForm(ctx, tenant.ID, "token", form)
	if err != nil {
		return domain.Session{}, fmt.Errorf("token request: %w", err)
	}
	var tokenResp domain.TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return domain.Session{}, fmt.Errorf("parse token response: %w", err)
	}
	if tokenResp.Data.Token == "" || tokenResp.Data.UHash == "" {
		return domain.Session{}, fmt.Errorf("can't get token or u_hash from /token")
	}

	return domain.Session{
		TenantID:        tenant.ID,
		Token:           tokenResp.Data.Token,
		SessionHash:     tokenResp.Data.UHash,
		AuthenticatedAt: time.Now(),
	}, nil
}

// GetUserByPhone ищет пользователя тенанта по номеру телефона.
// Без активной сессии сразу возвращает domain.ErrAuthMissing.
func (c *PartnerClient) GetUserByPhone(ctx context.Context, tenantID, phone string) (*domain.PartnerUsers, error) {
	form, err := c.sessionForm(tenantID)
	if err != nil {
		return nil, err
	}
	form.Set("u_a_phone", phone)

	c.logger.Info("getting user by phone", "tenant", tenantID, "phone", phone)
	body, err := c.doForm(ctx, tenantID, "user", form)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("user by phone response", "tenant", tenantID, "body", truncate(string(body), 1024))

	return decodeUsers(body)
}

// EditUserLink записывает Telegram ID в карточку пользователя.
// При ответе не 2xx возвращает *PartnerError и, если тело удалось
// разобрать, результат с сообщением сервера.
func (c *PartnerClient) EditUserLink(ctx context.Context, tenantID, userID, platformUserID string) (*domain.EditResult, error) {
	form, err := c.sessionForm(tenantID)
	if err != nil {
		return nil, err
	}

	telegramID, err := strconv.ParseInt(platformUserID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("partner: telegram id %q: %w", platformUserID, domain.ErrInvalidUserID)
	}
	data, err := json.Marshal(domain.EditUserData{TelegramID: telegramID})
	if err != nil {
		return nil, fmt.Errorf("partner: encode edit payload: %w", err)
	}
	form.Set("data", string(data))

	c.logger.Info("editing user", "tenant", tenantID, "user_id", userID, "u_tg", platformUserID)
	body, reqErr := c.doForm(ctx, tenantID, "user/"+url.PathEscape(userID), form)
	if body == nil {
		return nil, reqErr
	}

	var result domain.EditResult
	if err := json.Unmarshal(body, &result); err != nil {
		if reqErr != nil {
			return nil, reqErr
		}
		return nil, fmt.Errorf("partner: parse edit response: %w", err)
	}
	c.logger.Info("edit user response", "tenant", tenantID, "user_id", userID,
		"success", result.Success, "code", result.Code, "message", result.Message)

	return &result, reqErr
}

func (c *PartnerClient) sessionForm(tenantID string) (url.Values, error) {
	if _, known := c.tenants.Get(tenantID); !known {
		c.logger.Error("unknown tenant", "tenant", tenantID)
		return nil, fmt.Errorf("partner: tenant %q: %w: %w", tenantID, domain.ErrUnknownTenant, domain.ErrAuthMissing)
	}
	session, ok := c.sessions.Get(tenantID)
	if !ok {
		c.logger.Error("can't get auth data for tenant", "tenant", tenantID)
		return nil, fmt.Errorf("partner: tenant %q: %w", tenantID, domain.ErrAuthMissing)
	}
	form := url.Values{}
	form.Set("token", session.Token)
	form.Set("u_hash", session.SessionHash)
	return form, nil
}

func (c *PartnerClient) endpoint(tenantID, path string) string {
	return strings.ReplaceAll(c.urlPattern, TenantPlaceholder, url.PathEscape(tenantID)) + path
}

// doForm отправляет POST с form-телом. Успехом считается только 2xx;
// для остальных статусов возвращается тело и *PartnerError.
func (c *PartnerClient) doForm(ctx context.Context, tenantID, path string, form url.Values) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(tenantID, path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("partner: create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("partner: request to %s failed: %w", path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("partner: read %s response: %w", path, err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return body, nil
	}
	return body, &PartnerError{
		StatusCode: response.StatusCode,
		Method:     http.MethodPost,
		Path:       path,
		Body:       body,
	}
}

// decodeUsers разбирает {"data": {"user": {id: {...}}}}. Пустая коллекция
// приходит как пустой JSON массив.
func decodeUsers(body []byte) (*domain.PartnerUsers, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("partner: parse user response: %w", err)
	}

	users := &domain.PartnerUsers{}
	if isEmptyJSON(envelope.Data) {
		return users, nil
	}

	var data struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("partner: parse user data: %w", err)
	}
	if isEmptyJSON(data.User) {
		return users, nil
	}
	if err := json.Unmarshal(data.User, &users.Users); err != nil {
		return nil, fmt.Errorf("partner: parse user collection: %w", err)
	}
	return users, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return true
	case trimmed[0] == '[':
		var items []json.RawMessage
		return json.Unmarshal(trimmed, &items) == nil && len(items) == 0
	}
	return false
}
