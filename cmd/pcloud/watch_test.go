package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSkipWatchName(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want bool
	}{
		{"dotfile", ".DS_Store", true},
		{"hidden", ".env", true},
		{"editor backup", "notes.txt~", true},
		{"partial download", "photo.jpg.partial", true},
		{"regular file", "notes.txt", false},
		{"partial as a name", "partial", false},
		{"dot inside", "a.b.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skipWatchName(tt.arg))
		})
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	t.Parallel()

	d := newDebouncer()
	fired := make(chan struct{}, 8)

	for range 3 {
		d.trigger("key", func() { fired <- struct{}{} })
	}

	select {
	case <-fired:
	case <-time.After(5 * watchDebounce):
		t.Fatal("debounced action never fired")
	}

	// The burst collapsed into that one firing.
	select {
	case <-fired:
		t.Fatal("debounced action fired more than once")
	case <-time.After(3 * watchDebounce):
	}
}

func TestDebouncer_IndependentKeys(t *testing.T) {
	t.Parallel()

	d := newDebouncer()
	fired := make(chan string, 8)

	d.trigger("a", func() { fired <- "a" })
	d.trigger("b", func() { fired <- "b" })

	got := map[string]bool{}

	for range 2 {
		select {
		case k := <-fired:
			got[k] = true
		case <-time.After(5 * watchDebounce):
			t.Fatal("debounced action never fired")
		}
	}

	assert.True(t, got["a"])
	assert.True(t, got["b"])
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	t.Parallel()

	d := newDebouncer()
	fired := make(chan struct{}, 1)

	d.trigger("key", func() { fired <- struct{}{} })
	d.stop()

	select {
	case <-fired:
		t.Fatal("stopped action still fired")
	case <-time.After(3 * watchDebounce):
	}
}
