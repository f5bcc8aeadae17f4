package numa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUList(t *testing.T) {
	tests := []struct {
		in   string
		want []int
		err  bool
	}{
		{in: "", want: nil},
		{in: "0", want: []int{0}},
		{in: "0-3", want: []int{0, 1, 2, 3}},
		{in: "0-1,4,6-7", want: []int{0, 1, 4, 6, 7}},
		{in: "3-1", err: true},
		{in: "a", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCPUList(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadNodes(t *testing.T) {
	dir := t.TempDir()
	for name, list := range map[string]string{"node1": "4-7\n", "node0": "0-3\n"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name, "cpulist"), []byte(list), 0o600))
	}

	nodes, err := readNodes(dir)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, Node{ID: 0, CPUs: []int{0, 1, 2, 3}}, nodes[0])
	assert.Equal(t, Node{ID: 1, CPUs: []int{4, 5, 6, 7}}, nodes[1])
}

func TestNodes_Fallback(t *testing.T) {
	old := sysNodeDir
	sysNodeDir = filepath.Join(t.TempDir(), "missing")
	defer func() { sysNodeDir = old }()

	nodes := Nodes()
	require.Len(t, nodes, 1)
	assert.NotEmpty(t, nodes[0].CPUs)
}

func TestPin(t *testing.T) {
	nodes := Nodes()
	done := make(chan error, 1)
	go func() {
		unpin, err := Pin(nodes[0])
		defer unpin()
		if err == ErrUnsupported {
			err = nil
		}
		done <- err
	}()
	// Affinity calls may be refused inside restricted containers; only
	// failures other than permission problems matter here.
	if err := <-done; err != nil {
		t.Skipf("affinity unavailable: %v", err)
	}

	_, err := Pin(Node{ID: 9})
	assert.Error(t, err)
}
