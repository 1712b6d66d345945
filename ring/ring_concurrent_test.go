// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

package ring

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ring/api"
)

// TestBuffer_SPSCConcurrent streams a known byte sequence from one writer to
// one reader with random chunk sizes and checks order and completeness.
func TestBuffer_SPSCConcurrent(t *testing.T) {
	for _, capacity := range []uint64{2, 16, 1024} {
		rb := newRing(t, capacity)
		const total = 1 << 20

		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			chunk := make([]byte, 3*rb.Cap())
			sent := 0
			for sent < total {
				n := min(1+rnd.Intn(len(chunk)), total-sent)
				for i := 0; i < n; i++ {
					chunk[i] = byte((sent + i) % 251)
				}
				off := 0
				for off < n {
					w, err := rb.Write(chunk[off:n])
					if api.IsWouldBlock(err) {
						select {
						case <-stop:
							return
						default:
						}
						runtime.Gosched()
						continue
					}
					if err != nil {
						t.Errorf("write: %v", err)
						return
					}
					off += w
				}
				sent += n
			}
		}(time.Now().UnixNano())

		done := make(chan int)
		go func(seed int64) {
			defer close(stop)
			rnd := rand.New(rand.NewSource(seed))
			dst := make([]byte, 3*rb.Cap())
			got := 0
			for got < total {
				n, err := rb.Read(dst[:1+rnd.Intn(len(dst))])
				if api.IsWouldBlock(err) {
					runtime.Gosched()
					continue
				}
				if err != nil {
					t.Errorf("read: %v", err)
					break
				}
				for i := 0; i < n; i++ {
					if dst[i] != byte((got+i)%251) {
						t.Errorf("capacity %d: byte %d = %d, want %d", capacity, got+i, dst[i], byte((got+i)%251))
						done <- got
						return
					}
				}
				got += n
			}
			done <- got
		}(time.Now().UnixNano() + 1)

		select {
		case got := <-done:
			assert.Equal(t, total, got)
		case <-time.After(30 * time.Second):
			t.Fatalf("capacity %d: timeout waiting for reader", capacity)
		}
		wg.Wait()
		if !t.Failed() {
			require.True(t, rb.IsEmpty())
		}
	}
}

func BenchmarkBuffer_WriteRead(b *testing.B) {
	for _, chunk := range []int{16, 256, 4096} {
		b.Run(fmt.Sprintf("chunk=%d", chunk), func(b *testing.B) {
			rb, err := New(1 << 16)
			if err != nil {
				b.Fatal(err)
			}
			defer rb.Release()
			src := make([]byte, chunk)
			dst := make([]byte, chunk)
			b.SetBytes(int64(chunk))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = rb.Write(src)
				_, _ = rb.Read(dst)
			}
		})
	}
}

func BenchmarkBuffer_SPSC(b *testing.B) {
	rb, err := New(1 << 16)
	if err != nil {
		b.Fatal(err)
	}
	defer rb.Release()
	const chunk = 512
	b.SetBytes(chunk)
	b.ReportAllocs()
	b.ResetTimer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		dst := make([]byte, chunk)
		remaining := b.N * chunk
		for remaining > 0 {
			n, _ := rb.Read(dst[:min(chunk, remaining)])
			if n == 0 {
				runtime.Gosched()
			}
			remaining -= n
		}
	}()
	src := make([]byte, chunk)
	for i := 0; i < b.N; i++ {
		off := 0
		for off < chunk {
			n, _ := rb.Write(src[off:])
			if n == 0 {
				runtime.Gosched()
			}
			off += n
		}
	}
	<-done
}
