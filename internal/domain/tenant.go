package domain

import (
	"sort"
	"time"
)

// Tenant - одна инсталляция партнерской системы со своими учетными данными
type Tenant struct {
	ID       string `json:"-"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Type     string `json:"type"`
}

// TenantRegistry - неизменяемый после загрузки набор тенантов
type TenantRegistry struct {
	tenants map[string]Tenant
}

// NewTenantRegistry создает реестр; ключ карты становится ID тенанта
func NewTenantRegistry(tenants map[string]Tenant) *TenantRegistry {
	copied := make(map[string]Tenant, len(tenants))
	for id, t := range tenants {
		t.ID = id
		copied[id] = t
	}
	return &TenantRegistry{tenants: copied}
}

// Get возвращает тенанта по ID
func (r *TenantRegistry) Get(id string) (Tenant, bool) {
	t, ok := r.tenants[id]
	return t, ok
}

// IDs возвращает отсортированный список ID
func (r *TenantRegistry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len - количество тенантов
func (r *TenantRegistry) Len() int {
	return len(r.tenants)
}

// Session - пара токенов, полученная двухшаговой авторизацией тенанта
type Session struct {
	TenantID        string
	Token           string
	SessionHash     string
	AuthenticatedAt time.Time
}
