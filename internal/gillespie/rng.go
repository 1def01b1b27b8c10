package gillespie

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// Stream yields independent uniform draws in the open interval (0, 1).
type Stream interface {
	Float64() float64
}

// Streams are the two random consumption points of a trajectory.
type Streams struct {
	Waiting   Stream
	Selection Stream
}

const (
	streamWaiting   = "waiting"
	streamSelection = "selection"
)

// RandStream adapts a *rand.Rand to Stream.
type RandStream struct {
	rng *rand.Rand
}

func NewRandStream(seed int64) *RandStream {
	return &RandStream{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandStream) Float64() float64 { return openUnit(s.rng) }

// openUnit maps 53 random bits to the centre of their interval so neither
// 0 nor 1 is ever produced.
func openUnit(r *rand.Rand) float64 {
	return (float64(r.Int63()>>10) + 0.5) / (1 << 53)
}

// Block is a pre-drawn, fixed-size run of uniforms with a consumption cursor.
type Block struct {
	values []float64
	next   int
}

func NewBlock(values []float64) *Block {
	return &Block{values: values}
}

// FillBlock draws n uniforms from rng into a new Block.
func FillBlock(rng *rand.Rand, n int) *Block {
	values := make([]float64, n)
	for i := range values {
		values[i] = openUnit(rng)
	}
	return &Block{values: values}
}

// Float64 returns the next pre-drawn value, or NaN once the block is
// exhausted.
func (b *Block) Float64() float64 {
	if b.next >= len(b.values) {
		return math.NaN()
	}
	v := b.values[b.next]
	b.next++
	return v
}

// Used reports how many draws have been consumed.
func (b *Block) Used() int { return b.next }
func (b *Block) Len() int  { return len(b.values) }

// Recorder captures every draw taken from the wrapped stream.
type Recorder struct {
	src   Stream
	draws []float64
}

func NewRecorder(src Stream) *Recorder {
	return &Recorder{src: src}
}

func (r *Recorder) Float64() float64 {
	v := r.src.Float64()
	r.draws = append(r.draws, v)
	return v
}

// Draws returns a copy of the captured draws.
func (r *Recorder) Draws() []float64 {
	out := make([]float64, len(r.draws))
	copy(out, r.draws)
	return out
}

// Replay plays back previously captured draws in order.
func Replay(draws []float64) *Block {
	values := make([]float64, len(draws))
	copy(values, draws)
	return NewBlock(values)
}

// RunStreams derives the waiting-time block and selection stream for one run
// of an ensemble. Sub-streams depend only on (seed, run), never on the order
// in which runs execute.
func RunStreams(seed int64, run, maxEvents int) Streams {
	waiting := rand.New(rand.NewSource(deriveSeed(seed, streamWaiting, run)))
	return Streams{
		Waiting:   FillBlock(waiting, maxEvents),
		Selection: NewRandStream(deriveSeed(seed, streamSelection, run)),
	}
}

func deriveSeed(seed int64, name string, run int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s_%d", name, run)
	return int64(splitmix64(uint64(seed) ^ h.Sum64()))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
