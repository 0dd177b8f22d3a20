package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// FlexibleID - ID, который партнер может прислать строкой или числом
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

// CodeDeliveryRequest - запрос на отправку кода пользователю
type CodeDeliveryRequest struct {
	Code   string     `json:"code"`
	UserID FlexibleID `json:"user_id"`
}

// Validate проверяет обязательные поля и что user_id - положительный Telegram ID
func (r CodeDeliveryRequest) Validate() error {
	if r.Code == "" {
		return ErrCodeRequired
	}
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if id, err := strconv.ParseInt(string(r.UserID), 10, 64); err != nil || id <= 0 {
		return ErrInvalidUserID
	}
	return nil
}

// SentMessage - что вернул Notifier после отправки
type SentMessage struct {
	MessageID int64
	ChatID    int64
	Date      time.Time
}

// IncomingMessage - входящее текстовое сообщение боту
type IncomingMessage struct {
	ChatID int64
	UserID int64
	Text   string
}

// DeliveryData - поле data успешного ответа /send-message
// Date и ChatID при отсутствии сериализуются как null.
type DeliveryData struct {
	UserID    string  `json:"user_id"`
	MessageID int64   `json:"message_id"`
	Date      *string `json:"date"`
	ChatID    *int64  `json:"chat_id"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope - единый формат всех HTTP ответов
type Envelope struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}
