package telegram

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vadimtrunov/MovieDeck/internal/repository"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb/tmdbtest"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testFactory(fake *tmdbtest.Fake) SessionFactory {
	repo := repository.New(fake, discardLogger)
	return func() *viewstate.Coordinator {
		return viewstate.New(context.Background(), repo, viewstate.Options{Idle: true}, discardLogger)
	}
}

func TestSessionManager_IsAllowed(t *testing.T) {
	t.Run("empty whitelist allows all", func(t *testing.T) {
		sm := newSessionManager(nil)
		if !sm.isAllowed(123) {
			t.Error("expected all users allowed with nil whitelist")
		}
		if !sm.isAllowed(456) {
			t.Error("expected all users allowed with nil whitelist")
		}
	})

	t.Run("empty slice allows all", func(t *testing.T) {
		sm := newSessionManager([]int64{})
		if !sm.isAllowed(123) {
			t.Error("expected all users allowed with empty whitelist")
		}
	})

	t.Run("whitelist restricts", func(t *testing.T) {
		sm := newSessionManager([]int64{100, 200})
		if !sm.isAllowed(100) {
			t.Error("expected user 100 allowed")
		}
		if !sm.isAllowed(200) {
			t.Error("expected user 200 allowed")
		}
		if sm.isAllowed(300) {
			t.Error("expected user 300 denied")
		}
	})
}

func TestSessionManager_GetOrCreate(t *testing.T) {
	sm := newSessionManager(nil)
	t.Cleanup(sm.closeAll)
	factory := testFactory(&tmdbtest.Fake{})

	c1 := sm.getOrCreate(100, factory)
	if c1 == nil {
		t.Fatal("expected non-nil session")
	}

	c2 := sm.getOrCreate(100, factory)
	if c1 != c2 {
		t.Error("expected same session for same user")
	}

	c3 := sm.getOrCreate(200, factory)
	if c3 == nil {
		t.Fatal("expected non-nil session for user 200")
	}
	if c1 == c3 {
		t.Error("expected different sessions for different users")
	}
}

func TestSessionManager_NilFactoryResultNotCached(t *testing.T) {
	sm := newSessionManager(nil)
	calls := 0
	factory := func() *viewstate.Coordinator {
		calls++
		return nil
	}
	sm.getOrCreate(1, factory)
	sm.getOrCreate(1, factory)
	if calls != 2 {
		t.Errorf("expected factory retried, got %d calls", calls)
	}
	if sm.count() != 0 {
		t.Errorf("expected no sessions, got %d", sm.count())
	}
}

func TestSessionManager_Reset(t *testing.T) {
	fake := &tmdbtest.Fake{}
	sm := newSessionManager(nil)
	t.Cleanup(sm.closeAll)
	factory := testFactory(fake)

	c1 := sm.getOrCreate(100, factory)
	sm.reset(100)
	c2 := sm.getOrCreate(100, factory)

	if c1 == c2 {
		t.Error("expected new session after reset")
	}

	// A closed coordinator ignores further fetches.
	c1.FetchPopular()
	c1.Wait()
	if fake.Calls("popular") != 0 {
		t.Error("expected closed session to ignore fetches")
	}
}

func TestSessionManager_Concurrent(t *testing.T) {
	sm := newSessionManager(nil)
	t.Cleanup(sm.closeAll)
	factory := testFactory(&tmdbtest.Fake{})

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := int64(i % 10)
			if c := sm.getOrCreate(userID, factory); c == nil {
				t.Error("expected non-nil session")
			}
		}()
	}
	wg.Wait()

	if sm.count() != 10 {
		t.Errorf("expected 10 sessions, got %d", sm.count())
	}
}

func TestSessionManager_EvictIdle(t *testing.T) {
	sm := newSessionManager(nil)
	t.Cleanup(sm.closeAll)
	fake := &tmdbtest.Fake{}
	factory := testFactory(fake)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	stale := sm.getOrCreate(100, factory)
	now = now.Add(20 * time.Minute)
	fresh := sm.getOrCreate(200, factory)
	now = now.Add(15 * time.Minute)

	if n := sm.evictIdle(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 evicted session, got %d", n)
	}
	if sm.count() != 1 {
		t.Errorf("expected 1 remaining session, got %d", sm.count())
	}
	if got := sm.getOrCreate(200, factory); got != fresh {
		t.Error("recently used session should be kept")
	}
	if got := sm.getOrCreate(100, factory); got == stale {
		t.Error("idle session should be replaced")
	}

	// Evicted coordinators are closed.
	stale.FetchPopular()
	stale.Wait()
	if fake.Calls("popular") != 0 {
		t.Error("expected evicted session to ignore fetches")
	}
}

func TestSessionManager_EvictIdleKeepsLoading(t *testing.T) {
	release := make(chan struct{})
	fake := &tmdbtest.Fake{Popular: func(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error) {
		<-release
		return tmdbtest.OK(tmdb.MovieList{})
	}}
	sm := newSessionManager(nil)
	t.Cleanup(sm.closeAll)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	c := sm.getOrCreate(100, testFactory(fake))
	c.FetchPopular()
	now = now.Add(time.Hour)

	if n := sm.evictIdle(30 * time.Minute); n != 0 {
		t.Errorf("session with a fetch in flight was evicted")
	}
	close(release)
	c.Wait()

	if n := sm.evictIdle(30 * time.Minute); n != 1 {
		t.Errorf("expected idle session evicted once loaded, got %d", n)
	}
}
