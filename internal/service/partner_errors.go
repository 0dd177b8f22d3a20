package service

import "fmt"

// PartnerError - ответ партнерского API с кодом вне диапазона 2xx.
// Тело ответа сохраняется: в нем может быть сообщение сервера.
//
//	var partnerErr *PartnerError
//	if errors.As(err, &partnerErr) { ... partnerErr.StatusCode ... }
type PartnerError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *PartnerError) Error() string {
	return fmt.Sprintf("partner: unexpected %d response from %s %s: %s", e.StatusCode, e.Method, e.Path, truncate(string(e.Body), 256))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
