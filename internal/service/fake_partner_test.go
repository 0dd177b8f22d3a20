package service

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"tg-link-service/internal/domain"
)

type partnerReply func(tenant, path string, form url.Values) (int, string)

// fakePartner - httptest сервер с контрактом партнерского API.
// Каждый эндпоинт можно переопределить.
type fakePartner struct {
	server *httptest.Server

	mu    sync.Mutex
	calls []string
	forms []url.Values

	auth  partnerReply
	token partnerReply
	user  partnerReply
	edit  partnerReply
}

func newFakePartner(t *testing.T) *fakePartner {
	t.Helper()
	fp := &fakePartner{
		auth: func(tenant, _ string, _ url.Values) (int, string) {
			return http.StatusOK, fmt.Sprintf(`{"auth_hash":"hash-%s"}`, tenant)
		},
		token: func(tenant, _ string, form url.Values) (int, string) {
			if form.Get("auth_hash") != "hash-"+tenant {
				return http.StatusForbidden, `{"status":"error"}`
			}
			return http.StatusOK, fmt.Sprintf(`{"data":{"token":"tok-%s","u_hash":"uh-%s"}}`, tenant, tenant)
		},
		user: func(string, string, url.Values) (int, string) {
			return http.StatusOK, `{"data":[]}`
		},
		edit: func(string, string, url.Values) (int, string) {
			return http.StatusOK, `{"success":true}`
		},
	}

	fp.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			t.Errorf("unexpected method %s", request.Method)
		}
		if err := request.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		rest := strings.TrimPrefix(request.URL.Path, "/taxi/c/")
		tenant, endpoint, found := strings.Cut(rest, "/api/v1/")
		if !found {
			writer.WriteHeader(http.StatusNotFound)
			return
		}

		fp.mu.Lock()
		fp.calls = append(fp.calls, tenant+" "+endpoint)
		fp.forms = append(fp.forms, request.PostForm)
		reply := fp.auth
		switch {
		case endpoint == "auth":
		case endpoint == "token":
			reply = fp.token
		case endpoint == "user":
			reply = fp.user
		case strings.HasPrefix(endpoint, "user/"):
			reply = fp.edit
		default:
			reply = func(string, string, url.Values) (int, string) { return http.StatusNotFound, "" }
		}
		fp.mu.Unlock()

		status, body := reply(tenant, endpoint, request.PostForm)
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		io.WriteString(writer, body)
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakePartner) pattern() string {
	return fp.server.URL + "/taxi/c/" + TenantPlaceholder + "/api/v1/"
}

func (fp *fakePartner) callCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.calls)
}

func (fp *fakePartner) lastForm() url.Values {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if len(fp.forms) == 0 {
		return nil
	}
	return fp.forms[len(fp.forms)-1]
}

func (fp *fakePartner) lastCall() string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if len(fp.calls) == 0 {
		return ""
	}
	return fp.calls[len(fp.calls)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(ids ...string) *domain.TenantRegistry {
	tenants := make(map[string]domain.Tenant, len(ids))
	for _, id := range ids {
		tenants[id] = domain.Tenant{Login: "login-" + id, Password: "pw-" + id, Type: "admin"}
	}
	return domain.NewTenantRegistry(tenants)
}

func newTestClient(t *testing.T, fp *fakePartner, ids ...string) *PartnerClient {
	t.Helper()
	client, err := NewPartnerClient(testRegistry(ids...), NewSessionStore(), PartnerClientConfig{
		URLPattern: fp.pattern(),
		HTTPClient: fp.server.Client(),
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("NewPartnerClient failed: %v", err)
	}
	return client
}
