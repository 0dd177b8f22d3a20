package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"tg-link-service/internal/domain"
)

// LoadTenants читает реестр тенантов: JSON объект id -> {login, password, type}.
// Комментарии и висячие запятые допускаются.
func LoadTenants(path string) (*domain.TenantRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseTenants(data)
}

// ParseTenants разбирает содержимое файла реестра
func ParseTenants(data []byte) (*domain.TenantRegistry, error) {
	var raw map[string]domain.Tenant
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("parse tenants: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrNoTenants
	}
	for id, t := range raw {
		if id == "" {
			return nil, fmt.Errorf("tenant with empty id")
		}
		if t.Login == "" || t.Password == "" {
			return nil, fmt.Errorf("tenant %q: login and password are required", id)
		}
	}
	return domain.NewTenantRegistry(raw), nil
}
