package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaultyStore_Reads(t *testing.T) {
	ctx := context.Background()
	fs := NewFaultyStore(NewMemoryStore())
	require.NoError(t, fs.Put(ctx, "m.data", []byte("0123456789")))

	errDisk := errors.New("disk")
	fs.AddRule(".data", Fault{ReadFrom: 4, ReadTo: 6, FailAfterBytes: -1, Err: errDisk})

	b, err := fs.Open(ctx, "m.data")
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.(Mappable)
	assert.False(t, ok)

	buf := make([]byte, 4)
	require.NoError(t, ReadFull(ctx, b, buf, 0))
	assert.Equal(t, "0123", string(buf))
	require.NoError(t, ReadFull(ctx, b, buf, 6))
	assert.Equal(t, "6789", string(buf))

	err = ReadFull(ctx, b, buf, 3)
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, 1, fs.FailedReads(".data"))
}

func TestFaultyStore_Writes(t *testing.T) {
	ctx := context.Background()
	fs := NewFaultyStore(NewMemoryStore())
	fs.AddRule("small", Fault{FailAfterBytes: 3})
	fs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true})
	fs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true})
	fs.AddRule("missing", Fault{FailOnOpen: true})

	assert.ErrorIs(t, fs.Put(ctx, "small", []byte("abcd")), ErrInjected)
	require.NoError(t, fs.Put(ctx, "small", []byte("abc")))

	w, err := fs.Create(ctx, "small-stream")
	require.NoError(t, err)
	_, err = w.Write([]byte("ab"))
	require.NoError(t, err)
	_, err = w.Write([]byte("cd"))
	assert.ErrorIs(t, err, ErrInjected)
	require.NoError(t, w.Close())

	w, err = fs.Create(ctx, "sync")
	require.NoError(t, err)
	assert.ErrorIs(t, w.Sync(), ErrInjected)
	require.NoError(t, w.Close())

	w, err = fs.Create(ctx, "close")
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), ErrInjected)

	_, err = fs.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrInjected)

	names, err := fs.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "small")
}
