//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package rand provides the random primitives the noise samplers are built
// on. A Generator turns a stream of random bytes into uniform, sign and
// geometric samples.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"sync"

	log "github.com/golang/glog"
)

var secure = NewGenerator(bufio.NewReaderSize(cryptorand.Reader, 65536))

// Secure returns the process-wide Generator backed by crypto/rand.
func Secure() *Generator {
	return secure
}

// Generator draws random values from a byte stream. It is safe for concurrent
// use.
type Generator struct {
	mu     sync.Mutex
	r      io.Reader
	bitBuf uint8
	bitPos int8
}

// NewGenerator returns a Generator reading from r. The reader must never run
// dry: running out of randomness is fatal.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{r: r, bitPos: math.MaxInt8}
}

func (g *Generator) read(b []byte) {
	if _, err := io.ReadFull(g.r, b); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
}

// U64 returns a uniformly random uint64.
func (g *Generator) U64() uint64 {
	var r [8]uint8
	g.mu.Lock()
	g.read(r[:])
	g.mu.Unlock()
	return binary.LittleEndian.Uint64(r[:])
}

// U8 returns a uniformly random uint8.
func (g *Generator) U8() uint8 {
	var r [1]uint8
	g.mu.Lock()
	g.read(r[:])
	g.mu.Unlock()
	return r[0]
}

// Boolean returns true or false with equal probability. Bits are consumed
// from a buffered byte, least significant first.
func (g *Generator) Boolean() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bitPos > 7 {
		var r [1]uint8
		g.read(r[:])
		g.bitBuf = r[0]
		g.bitPos = 0
	}
	res := g.bitBuf&(1<<g.bitPos) > 0
	g.bitPos++
	return res
}

// Sign returns +1.0 or -1.0 with equal probabilities.
func (g *Generator) Sign() float64 {
	if g.Boolean() {
		return 1.0
	}
	return -1.0
}

// Uniform returns a float64 from the interval (0,1] such that each float
// in the interval is returned with positive probability and the resulting
// distribution simulates a continuous uniform distribution on (0, 1].
func (g *Generator) Uniform() float64 {
	i := g.U64() % (1 << 53)
	r := (1 + float64(i)/(1<<53)) / math.Pow(2, g.Geometric())
	// Callers take the log of the output.
	if r == 0 {
		return 1
	}
	return r
}

// Geometric returns a float64 that counts the number of Bernoulli trials until
// the first success for a success probability of 0.5.
func (g *Generator) Geometric() float64 {
	// 1 plus the number of leading zeros from an infinite stream of random bits
	// follows the desired geometric distribution.
	b := 1
	var r uint8
	for r == 0 {
		r = g.U8()
		b += bits.LeadingZeros8(r)
	}
	return float64(b)
}
