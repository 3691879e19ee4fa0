package benchmark

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	cryptoRand "crypto/rand"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/Jeffail/tunny"
	"github.com/alitto/pond"
	wp_gammazero "github.com/gammazero/workerpool"
	wp_ants "github.com/panjf2000/ants/v2"

	"github.com/domaincore/domainpool"
)

// Same synthetic AES-CBC payload and parallelism sweep used to compare
// worker pool libraries elsewhere in this ecosystem, benchmarked against
// four competitor pools plus domainpool itself. A fifth comparison against
// a vendored fasthttp worker pool is dropped since that source isn't a
// dependency here.
var wg sync.WaitGroup

var aesKey = []byte("0123456789ABCDEF")
var oneKiloByte = []byte(strings.Repeat("a", 1024))

var runs = []int{10, 100, 500, 1000}

func work() {
	encryptCBC(oneKiloByte, aesKey)
	wg.Done()
}

func BenchmarkGoRoutineWithoutWorkerpool(b *testing.B) {
	runtime.GC()
	b.ResetTimer()

	for _, parallelism := range runs {
		b.Run(fmt.Sprintf("%4d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			b.SetParallelism(parallelism)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					wg.Add(1)
					go work()
				}
			})
		})
	}

	wg.Wait()
}

func BenchmarkAntsWorkerpool(b *testing.B) {
	runtime.GC()

	wp, _ := wp_ants.NewPoolWithFunc(10000000, func(interface{}) {
		work()
	}, wp_ants.WithPreAlloc(false))

	b.ResetTimer()

	for _, parallelism := range runs {
		b.Run(fmt.Sprintf("%4d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			b.SetParallelism(parallelism)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					wg.Add(1)
					wp.Invoke(struct{}{})
				}
			})
		})
	}

	wg.Wait()
	b.StopTimer()
	wp.Release()
}

func BenchmarkGammazeroWorkerpool(b *testing.B) {
	runtime.GC()

	wp := wp_gammazero.New(10000000)

	b.ResetTimer()

	for _, parallelism := range runs {
		b.Run(fmt.Sprintf("%4d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			b.SetParallelism(parallelism)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					wg.Add(1)
					wp.Submit(work)
				}
			})
		})
	}

	wg.Wait()
	b.StopTimer()
	wp.Stop()
}

func BenchmarkTunnyWorkerpool(b *testing.B) {
	runtime.GC()

	pool := tunny.NewFunc(runtime.GOMAXPROCS(0), func(interface{}) interface{} {
		work()
		return nil
	})

	b.ResetTimer()

	for _, parallelism := range runs {
		b.Run(fmt.Sprintf("%4d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			b.SetParallelism(parallelism)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					wg.Add(1)
					pool.Process(nil)
				}
			})
		})
	}

	wg.Wait()
	b.StopTimer()
	pool.Close()
}

func BenchmarkPondWorkerpool(b *testing.B) {
	runtime.GC()

	pool := pond.New(10000000, 0)

	b.ResetTimer()

	for _, parallelism := range runs {
		b.Run(fmt.Sprintf("%4d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			b.SetParallelism(parallelism)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					wg.Add(1)
					pool.Submit(work)
				}
			})
		})
	}

	wg.Wait()
	b.StopTimer()
	pool.StopAndWait()
}

// BenchmarkDomainpoolWorkerpool benchmarks a fixed-roster domainpool.Pool
// fronted by an OverflowQueue, the closest fair comparison to the other
// four pools' unbounded-queue-plus-goroutine-pool designs: domainpool's
// roster never grows past its initial size, so the overflow queue is what
// absorbs bursts beyond that fixed capacity.
func BenchmarkDomainpoolWorkerpool(b *testing.B) {
	runtime.GC()

	p := &domainpool.Pool{}
	p.Prepare(runtime.GOMAXPROCS(0))
	q := domainpool.NewOverflowQueue()

	b.ResetTimer()

	for _, parallelism := range runs {
		b.Run(fmt.Sprintf("[%d]-%4d", runtime.GOMAXPROCS(0), parallelism), func(b *testing.B) {
			b.ReportAllocs()
			b.SetParallelism(parallelism)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					wg.Add(1)
					q.Dispatch(p, func(int) { work() })
				}
			})
		})
	}

	wg.Wait()
	b.StopTimer()
	p.Shutdown()
}

func encryptCBC(plainText, key []byte) (cipherText []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	plainText = pad(aes.BlockSize, plainText)

	cipherText = make([]byte, aes.BlockSize+len(plainText))
	iv := cipherText[:aes.BlockSize]
	if _, err = io.ReadFull(cryptoRand.Reader, iv); err != nil {
		return nil, err
	}

	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(cipherText[aes.BlockSize:], plainText)
	return cipherText, nil
}

func pad(blockSize int, buf []byte) []byte {
	padLen := blockSize - (len(buf) % blockSize)
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(buf, padding...)
}
