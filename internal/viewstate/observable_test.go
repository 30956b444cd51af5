package viewstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservable_SubscribeReceivesCurrentAndLatest(t *testing.T) {
	t.Parallel()

	o := NewObservable[int]()
	_, ok := o.Get()
	assert.False(t, ok)

	o.Set(1)
	ch, cancel := o.Subscribe()
	assert.Equal(t, 1, <-ch)

	o.Set(2)
	o.Set(3)
	assert.Equal(t, 3, <-ch)
	assert.Equal(t, uint64(3), o.Version())

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	o.Set(4)
	v, ok := o.Get()
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestObservable_EmptySubscribeWaitsForFirstSet(t *testing.T) {
	t.Parallel()

	o := NewObservable[string]()
	ch, cancel := o.Subscribe()
	defer cancel()

	select {
	case v := <-ch:
		t.Fatalf("unexpected value %q", v)
	default:
	}
	o.Set("x")
	assert.Equal(t, "x", <-ch)
}

func TestHub_DropsWhenFull(t *testing.T) {
	t.Parallel()

	h := newHub[int]()
	ch, cancel := h.subscribe()
	defer cancel()

	for i := range hubBuffer {
		assert.Zero(t, h.publish(i))
	}
	assert.Equal(t, 1, h.publish(-1))
	assert.Equal(t, 0, <-ch)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Category
	}{
		{"trending", CategoryTrending},
		{"now-playing", CategoryNowPlaying},
		{"now_playing", CategoryNowPlaying},
		{"NowPlaying", CategoryNowPlaying},
		{" top-rated ", CategoryTopRated},
		{"trailers", CategoryTrailers},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCategory("latest")
	assert.Error(t, err)
	assert.Equal(t, "category(99)", Category(99).String())
	assert.Len(t, ListCategories(), 5)
	assert.Len(t, MovieCategories(), 4)
}
