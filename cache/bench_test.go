package cache

import (
	"fmt"
	"testing"
	"time"
)

// BenchmarkCache_Get_Hit measures cache hit performance.
func BenchmarkCache_Get_Hit(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})
	c.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get("key")
	}
}

// BenchmarkCache_Get_Miss measures cache miss performance.
func BenchmarkCache_Get_Miss(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get("missing")
	}
}

// BenchmarkCache_Set measures write performance.
func BenchmarkCache_Set(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})
	value := "test value"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key-%d", i), value)
	}
}

// BenchmarkCache_Set_SameKey measures overwrite performance.
func BenchmarkCache_Set_SameKey(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})
	value := "test value"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("same-key", value)
	}
}

// BenchmarkCache_Set_AtCapacity measures writes that evict on every insert.
func BenchmarkCache_Set_AtCapacity(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour, MaxSize: 100})
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("seed-%d", i), "value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key-%d", i), "value")
	}
}

// BenchmarkCache_Delete measures delete performance.
func BenchmarkCache_Delete(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key-%d", i), "value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Delete(fmt.Sprintf("key-%d", i))
	}
}

// BenchmarkCache_Stats measures stats retrieval.
func BenchmarkCache_Stats(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})
	c.Set("key", "value")
	c.Get("key")
	c.Get("missing")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Stats()
	}
}

// BenchmarkCache_Concurrent_ReadWrite measures mixed concurrent operations.
func BenchmarkCache_Concurrent_ReadWrite(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("key-%d", i), "value")
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", i%100)
			if i%4 == 0 {
				// 25% writes
				c.Set(key, "new-value")
			} else {
				// 75% reads
				_, _ = c.Get(key)
			}
			i++
		}
	})
}

// BenchmarkCache_Concurrent_ReadHeavy measures read-heavy workload.
func BenchmarkCache_Concurrent_ReadHeavy(b *testing.B) {
	c := New[string](Options[string]{TTL: time.Hour})
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("key-%d", i), "value")
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = c.Get(fmt.Sprintf("key-%d", i%100))
			i++
		}
	})
}

// BenchmarkDefaultKeyer_Key measures key generation.
func BenchmarkDefaultKeyer_Key(b *testing.B) {
	keyer := NewDefaultKeyer()
	input := map[string]any{
		"prompt": "test",
		"limit":  10,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = keyer.Key("completion", input)
	}
}

// BenchmarkDefaultKeyer_Key_LargePayload measures key generation with a large payload.
func BenchmarkDefaultKeyer_Key_LargePayload(b *testing.B) {
	keyer := NewDefaultKeyer()
	input := map[string]any{
		"prompt": "break this idea into actionable tasks",
		"limit":  100,
		"offset": 0,
		"labels": []any{"backend", "frontend", "infra"},
		"nested": map[string]any{
			"key1": "value1",
			"key2": "value2",
			"key3": "value3",
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = keyer.Key("completion", input)
	}
}

// BenchmarkDefaultKeyer_Key_Concurrent measures concurrent key generation.
func BenchmarkDefaultKeyer_Key_Concurrent(b *testing.B) {
	keyer := NewDefaultKeyer()
	input := map[string]any{"prompt": "test"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = keyer.Key("completion", input)
		}
	})
}

// BenchmarkPolicy_EffectiveTTL measures TTL calculation.
func BenchmarkPolicy_EffectiveTTL(b *testing.B) {
	policy := DefaultPolicy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = policy.EffectiveTTL(10 * time.Minute)
	}
}

// BenchmarkValidateScope measures scope validation.
func BenchmarkValidateScope(b *testing.B) {
	scope := "openai.completion"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateScope(scope)
	}
}
