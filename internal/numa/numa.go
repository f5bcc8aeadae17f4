package numa

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// ErrUnsupported is returned by Pin when thread affinity is unavailable.
var ErrUnsupported = errors.New("numa: thread affinity not supported")

// Node is one NUMA node and the CPUs attached to it.
type Node struct {
	ID   int
	CPUs []int
}

// sysNodeDir is a variable so tests can point discovery at a fake tree.
var sysNodeDir = "/sys/devices/system/node"

// Nodes returns the NUMA nodes of this machine. When the topology cannot be
// read, a single node holding every CPU is returned.
func Nodes() []Node {
	nodes, err := readNodes(sysNodeDir)
	if err != nil || len(nodes) == 0 {
		cpus := make([]int, runtime.NumCPU())
		for i := range cpus {
			cpus[i] = i
		}
		return []Node{{ID: 0, CPUs: cpus}}
	}
	return nodes
}

func readNodes(dir string) ([]Node, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "node[0-9]*"))
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), "node"))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m, "cpulist"))
		if err != nil {
			return nil, err
		}
		cpus, err := ParseCPUList(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("numa: node %d: %w", id, err)
		}
		nodes = append(nodes, Node{ID: id, CPUs: cpus})
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

// ParseCPUList parses the kernel cpulist format, e.g. "0-3,8,10-11".
func ParseCPUList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	var cpus []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid cpu %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil || last < first {
				return nil, fmt.Errorf("invalid cpu range %q", part)
			}
		}
		for c := first; c <= last; c++ {
			cpus = append(cpus, c)
		}
	}
	return cpus, nil
}

// Pin locks the calling goroutine to its OS thread and restricts the thread
// to the CPUs of node. The returned function restores the previous CPU mask
// and releases the thread lock; it must be called on the same goroutine when
// the worker exits. If the mask cannot be restored the thread stays locked,
// so the runtime discards it when the goroutine exits instead of reusing it.
func Pin(node Node) (func(), error) {
	if len(node.CPUs) == 0 {
		return func() {}, fmt.Errorf("numa: node %d has no cpus", node.ID)
	}
	runtime.LockOSThread()
	restore, err := setAffinity(node.CPUs)
	if err != nil {
		runtime.UnlockOSThread()
		return func() {}, err
	}
	return func() {
		if restore() != nil {
			return
		}
		runtime.UnlockOSThread()
	}, nil
}
