package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/taskmint/mintops/cache"
)

// stubService counts upstream calls and lets tests control the response.
type stubService struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

func (s *stubService) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if s.fn != nil {
		return s.fn(ctx, req)
	}
	return &CompletionResponse{
		ID:      fmt.Sprintf("cmpl-%d", n),
		Choices: []Choice{{Message: Message{Role: "assistant", Content: "done"}}},
	}, nil
}

func (s *stubService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func deterministicRequest(prompt string) *CompletionRequest {
	return &CompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: prompt}},
	}
}

func TestMemoizer_CacheHit(t *testing.T) {
	stub := &stubService{}
	m := NewMemoizer(stub, MemoizerConfig{Policy: cache.DefaultPolicy()})

	ctx := context.Background()
	req := deterministicRequest("break down: plan a garden")

	first, err := m.Complete(ctx, req)
	if err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}
	second, err := m.Complete(ctx, req)
	if err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}

	if stub.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1", stub.callCount())
	}
	if first.ID != second.ID {
		t.Errorf("responses differ: %q vs %q", first.ID, second.ID)
	}

	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", stats)
	}
}

func TestMemoizer_OnAccessReportsHitAndMiss(t *testing.T) {
	stub := &stubService{}
	var hits, misses int
	m := NewMemoizer(stub, MemoizerConfig{
		Policy: cache.DefaultPolicy(),
		OnAccess: func(ctx context.Context, hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		},
	})

	ctx := context.Background()
	req := deterministicRequest("break down: plan a garden")

	if _, err := m.Complete(ctx, req); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}
	if _, err := m.Complete(ctx, req); err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}

	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestMemoizer_OnAccessSkipsSampledRequests(t *testing.T) {
	stub := &stubService{}
	var accesses int
	m := NewMemoizer(stub, MemoizerConfig{
		Policy: cache.DefaultPolicy(),
		OnAccess: func(ctx context.Context, hit bool) {
			accesses++
		},
	})

	req := deterministicRequest("break down: plan a garden")
	req.Temperature = 0.7

	if _, err := m.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if accesses != 0 {
		t.Errorf("accesses = %d, want 0 for a sampled request", accesses)
	}
}

func TestMemoizer_DistinctRequests(t *testing.T) {
	stub := &stubService{}
	m := NewMemoizer(stub, MemoizerConfig{Policy: cache.DefaultPolicy()})

	ctx := context.Background()
	if _, err := m.Complete(ctx, deterministicRequest("first prompt")); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := m.Complete(ctx, deterministicRequest("second prompt")); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := m.Complete(ctx, deterministicRequest("first prompt")); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if stub.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2", stub.callCount())
	}
	if size := m.Stats().Size; size != 2 {
		t.Errorf("cache size = %d, want 2", size)
	}
}

func TestMemoizer_SampledBypassesCache(t *testing.T) {
	stub := &stubService{}
	m := NewMemoizer(stub, MemoizerConfig{Policy: cache.DefaultPolicy()})

	ctx := context.Background()
	req := deterministicRequest("be creative")
	req.Temperature = 0.9

	for i := 0; i < 2; i++ {
		if _, err := m.Complete(ctx, req); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
	}

	if stub.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2 (sampled requests bypass)", stub.callCount())
	}
	stats := m.Stats()
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("stats = %+v, want untouched cache", stats)
	}
}

func TestMemoizer_AllowSampled(t *testing.T) {
	stub := &stubService{}
	policy := cache.DefaultPolicy()
	policy.AllowSampled = true
	m := NewMemoizer(stub, MemoizerConfig{Policy: policy})

	ctx := context.Background()
	req := deterministicRequest("be creative")
	req.Temperature = 0.9

	for i := 0; i < 2; i++ {
		if _, err := m.Complete(ctx, req); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
	}

	if stub.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1", stub.callCount())
	}
}

func TestMemoizer_DisabledPolicy(t *testing.T) {
	stub := &stubService{}
	m := NewMemoizer(stub, MemoizerConfig{Policy: cache.NoCachePolicy()})

	ctx := context.Background()
	req := deterministicRequest("anything")

	for i := 0; i < 3; i++ {
		if _, err := m.Complete(ctx, req); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
	}

	if stub.callCount() != 3 {
		t.Errorf("upstream calls = %d, want 3 (memoization disabled)", stub.callCount())
	}
}

func TestMemoizer_ErrorsNotCached(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubService{}
	stub.fn = func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		if stub.callCount() == 1 {
			return nil, boom
		}
		return &CompletionResponse{
			ID:      "cmpl-ok",
			Choices: []Choice{{Message: Message{Content: "recovered"}}},
		}, nil
	}
	m := NewMemoizer(stub, MemoizerConfig{Policy: cache.DefaultPolicy()})

	ctx := context.Background()
	req := deterministicRequest("flaky prompt")

	if _, err := m.Complete(ctx, req); !errors.Is(err, boom) {
		t.Fatalf("first Complete() error = %v, want boom", err)
	}

	resp, err := m.Complete(ctx, req)
	if err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	if resp.ID != "cmpl-ok" {
		t.Errorf("resp.ID = %q, want cmpl-ok", resp.ID)
	}
	if stub.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2 (failure not cached)", stub.callCount())
	}

	// Third call hits the cached success
	if _, err := m.Complete(ctx, req); err != nil {
		t.Fatalf("third Complete() error = %v", err)
	}
	if stub.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2 after cached success", stub.callCount())
	}
}

func TestMemoizer_CollapsesConcurrentCalls(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	stub := &stubService{}
	stub.fn = func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		once.Do(func() { close(started) })
		<-release
		return &CompletionResponse{
			ID:      "cmpl-shared",
			Choices: []Choice{{Message: Message{Content: "shared"}}},
		}, nil
	}
	m := NewMemoizer(stub, MemoizerConfig{Policy: cache.DefaultPolicy()})

	req := deterministicRequest("same prompt for everyone")
	const callers = 10

	var wg sync.WaitGroup
	responses := make([]*CompletionResponse, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = m.Complete(context.Background(), req)
		}(i)
	}

	// Wait for the flight to begin, give the rest time to join it,
	// then let it finish.
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if stub.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1 (concurrent callers collapse)", stub.callCount())
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if responses[i].ID != "cmpl-shared" {
			t.Errorf("caller %d response = %q, want cmpl-shared", i, responses[i].ID)
		}
	}
}

func TestMemoizer_KeyerErrorPassesThrough(t *testing.T) {
	stub := &stubService{}
	m := NewMemoizer(stub, MemoizerConfig{
		Policy: cache.DefaultPolicy(),
		Scope:  "",
	})
	// An empty scope is replaced by the default, so force an invalid one.
	m.scope = " "

	ctx := context.Background()
	req := deterministicRequest("ok")

	for i := 0; i < 2; i++ {
		if _, err := m.Complete(ctx, req); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
	}

	if stub.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2 (unkeyable requests skip cache)", stub.callCount())
	}
}

func TestMemoizer_DefaultCache(t *testing.T) {
	stub := &stubService{}
	m := NewMemoizer(stub, MemoizerConfig{Policy: cache.DefaultPolicy()})

	if m.cache == nil {
		t.Fatal("memoizer cache is nil, want default cache")
	}

	ctx := context.Background()
	if _, err := m.Complete(ctx, deterministicRequest("warm")); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if m.Stats().Size != 1 {
		t.Errorf("Stats().Size = %d, want 1", m.Stats().Size)
	}
}
