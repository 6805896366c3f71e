package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Empty(t, store.Keys())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetGetDelete(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", val)

	require.NoError(t, store.Delete("llm.model"))
	_, ok = store.Get("llm.model")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("s", "text")
	_ = store.Set("i", 3)
	_ = store.Set("i64", int64(4))
	_ = store.Set("f", 1.5)
	_ = store.Set("b", true)
	_ = store.Set("any", []any{"x", 1, "y"})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "text"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 3},
		{"int from int64", store.GetInt("i64"), 4},
		{"int from float", store.GetInt("f"), 1},
		{"float", store.GetFloat("f"), 1.5},
		{"float from int", store.GetFloat("i"), 3.0},
		{"float wrong type", store.GetFloat("s"), 0.0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"slice skips non-strings", store.GetStringSlice("any"), []string{"x", "y"}},
		{"slice missing", store.GetStringSlice("missing"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_KeysSorted(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("search.top_k", 5)
	_ = store.Set("embedding.model", "all-minilm")
	_ = store.Set("notes.root", "/n")

	assert.Equal(t, []string{"embedding.model", "notes.root", "search.top_k"}, store.Keys())
}

func TestConfigStore_SaveAndLoadAreNoOps(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("k", "v")

	require.NoError(t, store.Save())
	require.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key.%d", i%5)
			_ = store.Set(key, i)
			_ = store.GetInt(key)
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 5)
}
