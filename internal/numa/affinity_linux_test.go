//go:build linux

package numa

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPin_RestoresAffinity(t *testing.T) {
	type masks struct {
		before, pinned, after unix.CPUSet
		cpu                   int
		err                   error
	}
	done := make(chan masks, 1)

	go func() {
		// The outer lock keeps this goroutine on the same thread after unpin.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var m masks
		if m.err = unix.SchedGetaffinity(0, &m.before); m.err != nil {
			done <- m
			return
		}
		m.cpu = -1
		for c := range len(m.before) * 64 {
			if m.before.IsSet(c) {
				m.cpu = c
				break
			}
		}

		unpin, err := Pin(Node{ID: 0, CPUs: []int{m.cpu}})
		if err != nil {
			m.err = err
			done <- m
			return
		}
		_ = unix.SchedGetaffinity(0, &m.pinned)
		unpin()
		m.err = unix.SchedGetaffinity(0, &m.after)
		done <- m
	}()

	m := <-done
	if m.err != nil {
		t.Skipf("affinity unavailable: %v", m.err)
	}
	require.GreaterOrEqual(t, m.cpu, 0)

	assert.Equal(t, 1, m.pinned.Count())
	assert.True(t, m.pinned.IsSet(m.cpu))
	assert.Equal(t, m.before, m.after)
}
