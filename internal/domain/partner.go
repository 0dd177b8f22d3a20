package domain

import "encoding/json"

// AuthResponse - ответ /auth
type AuthResponse struct {
	AuthHash string `json:"auth_hash"`
}

// TokenResponse - ответ /token
type TokenResponse struct {
	Data struct {
		Token string `json:"token"`
		UHash string `json:"u_hash"`
	} `json:"data"`
}

// PartnerUsers - коллекция пользователей из /user, ключ - ID пользователя
type PartnerUsers struct {
	Users map[string]json.RawMessage
}

// Empty - пользователей не найдено
func (u *PartnerUsers) Empty() bool {
	return u == nil || len(u.Users) == 0
}

// EditUserData - JSON документ, передаваемый в поле data при редактировании
type EditUserData struct {
	TelegramID int64 `json:"u_tg"`
}

// EditResult - ответ /user/{id}
type EditResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Code    FlexibleID `json:"code"`
}

// TenantAuthResult - итог авторизации одного тенанта
type TenantAuthResult struct {
	TenantID      string `json:"tenant_id"`
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
}
