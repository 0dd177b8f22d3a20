package service

import (
	"fmt"
	"sync"
	"testing"

	"tg-link-service/internal/domain"
)

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	if _, ok := store.Get("acme"); ok {
		t.Fatal("empty store returned a session")
	}

	store.Put(domain.Session{TenantID: "acme", Token: "t1", SessionHash: "h1"})
	store.Put(domain.Session{TenantID: "acme", Token: "t2", SessionHash: "h2"})

	session, ok := store.Get("acme")
	if !ok || session.Token != "t2" {
		t.Errorf("expected replaced session, got %+v", session)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSessionStoreConcurrentAccess(t *testing.T) {
	store := NewSessionStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		tenant := fmt.Sprintf("t%d", i%2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Put(domain.Session{TenantID: tenant, Token: fmt.Sprint(j)})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if s, ok := store.Get(tenant); ok && s.TenantID != tenant {
					t.Errorf("got session of %s for %s", s.TenantID, tenant)
				}
			}
		}()
	}
	wg.Wait()

	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}
