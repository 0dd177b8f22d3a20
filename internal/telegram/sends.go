package telegram

import (
	"fmt"
	"sync"
	"time"

	"github.com/zelenin/go-tdlib/client"
)

// unclaimedTTL - сколько хранится результат отправки, которую никто не ждет
const unclaimedTTL = time.Minute

// sendResult - итог отправки из UpdateMessageSendSucceeded/Failed
type sendResult struct {
	message *client.Message
	err     error
}

// sendTracker сопоставляет временный ID сообщения с итогом отправки.
// Итог может прийти раньше, чем отправитель начнет ждать, поэтому
// невостребованные результаты хранятся unclaimedTTL.
type sendTracker struct {
	mu        sync.Mutex
	waiters   map[int64]chan sendResult
	unclaimed map[int64]unclaimedResult
	now       func() time.Time
}

type unclaimedResult struct {
	result sendResult
	at     time.Time
}

func newSendTracker() *sendTracker {
	return &sendTracker{
		waiters:   make(map[int64]chan sendResult),
		unclaimed: make(map[int64]unclaimedResult),
		now:       time.Now,
	}
}

// wait регистрирует ожидание итога для временного ID. cancel снимает ожидание.
func (t *sendTracker) wait(oldID int64) (<-chan sendResult, func()) {
	ch := make(chan sendResult, 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.unclaimed[oldID]; ok {
		delete(t.unclaimed, oldID)
		ch <- r.result
		return ch, func() {}
	}
	t.waiters[oldID] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.waiters[oldID] == ch {
			delete(t.waiters, oldID)
		}
	}
}

// resolve передает итог ожидающему или откладывает его
func (t *sendTracker) resolve(oldID int64, result sendResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch, ok := t.waiters[oldID]; ok {
		delete(t.waiters, oldID)
		ch <- result
		return
	}

	now := t.now()
	for id, r := range t.unclaimed {
		if now.Sub(r.at) > unclaimedTTL {
			delete(t.unclaimed, id)
		}
	}
	t.unclaimed[oldID] = unclaimedResult{result: result, at: now}
}

// handleUpdate разбирает обновления об итоге отправки. false - обновление другого типа.
func (t *sendTracker) handleUpdate(update client.Type) bool {
	switch upd := update.(type) {
	case *client.UpdateMessageSendSucceeded:
		t.resolve(upd.OldMessageId, sendResult{message: upd.Message})
		return true
	case *client.UpdateMessageSendFailed:
		t.resolve(upd.OldMessageId, sendResult{message: upd.Message, err: sendError(upd.Error)})
		return true
	}
	return false
}

func sendError(e *client.Error) error {
	if e == nil {
		return fmt.Errorf("message send failed")
	}
	return fmt.Errorf("message send failed: %d %s", e.Code, e.Message)
}
