package matrixio

import (
	"sync"
	"sync/atomic"
)

// Config sets the I/O granularity of generators, in rows and row blocks.
type Config struct {
	// RowBlockSize is the number of rows in one on-disk row block.
	RowBlockSize int
	// RBIOSize is the number of row blocks in one chunk served to the owner.
	RBIOSize int
	// RBStealIOSize bounds the row blocks a thief takes at once. It must not
	// exceed RBIOSize.
	RBStealIOSize int
}

// DefaultConfig returns 4096-row blocks, 16 blocks per chunk and 1 block per
// steal.
func DefaultConfig() Config {
	return Config{
		RowBlockSize:  4096,
		RBIOSize:      16,
		RBStealIOSize: 1,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.RowBlockSize <= 0 {
		c.RowBlockSize = d.RowBlockSize
	}
	if c.RBIOSize <= 0 {
		c.RBIOSize = d.RBIOSize
	}
	if c.RBStealIOSize <= 0 {
		c.RBStealIOSize = d.RBStealIOSize
	}
	c.RBStealIOSize = min(c.RBStealIOSize, c.RBIOSize)
	return c
}

// Stats counts the row blocks a generator has handed out.
type Stats struct {
	Requests      int64
	ServedBlocks  int64
	StolenBlocks  int64
	StealRequests int64
}

// Generator serves the row blocks assigned to one worker.
type Generator struct {
	id   int
	conf Config

	mu          sync.Mutex
	chunks      []RowRangeCursor
	cursorIndex int

	requests      atomic.Int64
	servedBlocks  atomic.Int64
	stolenBlocks  atomic.Int64
	stealRequests atomic.Int64
}

// NewGenerator stripes the row blocks of index over numGens generators and
// returns the one with ordinal genID. Chunk k of conf.RBIOSize blocks
// belongs to generator k mod numGens. It panics if index does not validate
// against conf.RowBlockSize.
func NewGenerator(index RowBlockIndex, numCols, fileID, genID, numGens int, conf Config) *Generator {
	if numGens <= 0 || genID < 0 || genID >= numGens {
		panic("matrixio: generator id out of range")
	}
	conf = conf.normalize()
	if err := index.Validate(conf.RowBlockSize); err != nil {
		panic(err.Error())
	}

	g := &Generator{id: genID, conf: conf}
	n := index.NumBlocks()
	for first := genID * conf.RBIOSize; first < n; first += conf.RBIOSize * numGens {
		blocks := min(conf.RBIOSize, n-first)
		g.chunks = append(g.chunks, newCursor(index, first, blocks, numCols, fileID, conf.RowBlockSize))
	}
	return g
}

// NewGenerators builds the full set of numGens generators over index.
func NewGenerators(index RowBlockIndex, numCols, fileID, numGens int, conf Config) []*Generator {
	gens := make([]*Generator, numGens)
	for i := range gens {
		gens[i] = NewGenerator(index, numCols, fileID, i, numGens, conf)
	}
	return gens
}

// ID returns the generator ordinal.
func (g *Generator) ID() int {
	return g.id
}

// Config returns the normalized configuration.
func (g *Generator) Config() Config {
	return g.conf
}

// NextIO returns the whole remaining range of the current chunk. It must
// only be called by the owning worker. It returns the empty request once
// the generator is exhausted.
func (g *Generator) NextIO() IORequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.current()
	if c == nil {
		return IORequest{}
	}
	req := c.TakeWhole()
	g.cursorIndex++

	g.requests.Add(1)
	g.servedBlocks.Add(int64(g.blocksOf(req)))
	return req
}

// StealIO returns at most RBStealIOSize leading blocks of the current
// chunk. Any worker may call it.
func (g *Generator) StealIO() IORequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.current()
	if c == nil {
		return IORequest{}
	}
	req := c.TakePrefix(g.conf.RBStealIOSize)
	if !c.HasData() {
		g.cursorIndex++
	}

	n := int64(g.blocksOf(req))
	g.stealRequests.Add(1)
	g.servedBlocks.Add(n)
	g.stolenBlocks.Add(n)
	return req
}

// HasNextIO reports whether any chunk remains.
func (g *Generator) HasNextIO() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursorIndex < len(g.chunks)
}

// RemainingBlocks returns the number of unserved row blocks.
func (g *Generator) RemainingBlocks() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for i := g.cursorIndex; i < len(g.chunks); i++ {
		n += g.chunks[i].numBlocks
	}
	return n
}

// Stats returns a snapshot of the counters.
func (g *Generator) Stats() Stats {
	return Stats{
		Requests:      g.requests.Load(),
		ServedBlocks:  g.servedBlocks.Load(),
		StolenBlocks:  g.stolenBlocks.Load(),
		StealRequests: g.stealRequests.Load(),
	}
}

// current returns the cursor at cursorIndex, or nil when exhausted.
// g.mu must be held.
func (g *Generator) current() *RowRangeCursor {
	if g.cursorIndex >= len(g.chunks) {
		return nil
	}
	c := &g.chunks[g.cursorIndex]
	if !c.HasData() {
		panic("matrixio: current chunk is exhausted")
	}
	return c
}

func (g *Generator) blocksOf(req IORequest) int {
	_, n := req.Blocks(g.conf.RowBlockSize)
	return n
}
