package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, v)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestTrigger_CollapsesBurst(t *testing.T) {
	rec := &recorder{}
	d := New(50*time.Millisecond, rec.add)

	d.Trigger("a")
	d.Trigger("ab")
	d.Trigger("abc")

	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, []string{"abc"}, rec.get())
	assert.False(t, d.Pending())
}

func TestTrigger_SeparatedInputsFireTwice(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.add)

	d.Trigger("a")
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	d.Trigger("b")
	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, rec.get())
}

func TestFlushAndStop(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.add)

	assert.False(t, d.Flush())
	d.Trigger("x")
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.Equal(t, []string{"x"}, rec.get())

	d.Trigger("y")
	d.Stop()
	assert.False(t, d.Pending())
	assert.False(t, d.Flush())
	assert.Equal(t, []string{"x"}, rec.get())
}
