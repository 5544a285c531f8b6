package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockFreeQueue(t *testing.T) {
	assert := assert.New(t)
	t.Run("Empty Queue", func(t *testing.T) {
		q := NewLockFreeQueue[string]()

		assert.True(q.IsEmpty())
		assert.Equal(0, q.Length())
		item, ok := q.Dequeue()
		assert.False(ok)
		assert.Empty(item)
	})

	t.Run("Enqueue and Dequeue", func(t *testing.T) {
		q := NewLockFreeQueue[string]()

		q.Enqueue("data1")
		assert.False(q.IsEmpty())
		assert.Equal(1, q.Length())

		q.Enqueue("data2")
		assert.Equal(2, q.Length())

		item, ok := q.Dequeue()
		assert.True(ok)
		assert.Equal("data1", item)
		assert.Equal(1, q.Length())

		item, ok = q.Dequeue()
		assert.True(ok)
		assert.Equal("data2", item)
		assert.True(q.IsEmpty())

		_, ok = q.Dequeue()
		assert.False(ok)
	})

	t.Run("Tasks", func(t *testing.T) {
		q := NewLockFreeQueue[func()]()

		var order []int
		for i := range 3 {
			q.Enqueue(func() { order = append(order, i) })
		}
		for fn, ok := q.Dequeue(); ok; fn, ok = q.Dequeue() {
			fn()
		}
		assert.Equal([]int{0, 1, 2}, order)
	})

	t.Run("Concurrency", func(t *testing.T) {
		q := NewLockFreeQueue[int]()

		var wg sync.WaitGroup
		for i := 0; i < 1000; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				q.Enqueue(i)
			}(i)
		}
		wg.Wait()

		assert.Equal(1000, q.Length())

		var mu sync.Mutex
		seen := make(map[int]bool, 1000)
		wg.Add(1000)
		for i := 0; i < 1000; i++ {
			go func() {
				defer wg.Done()
				item, ok := q.Dequeue()
				if ok {
					mu.Lock()
					seen[item] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.True(q.IsEmpty())
		assert.Len(seen, 1000)
	})
}

func BenchmarkLockFreeQueue_100(b *testing.B) {
	benchLockFreeQueue(b, 100)
}

func BenchmarkChannelBuffered_100(b *testing.B) {
	benchChannel(b, 100)
}

func benchLockFreeQueue(b *testing.B, iterCount int) {
	ctx := context.Background()
	q := NewLockFreeQueue[int]()

	b.ResetTimer()
	for i := 0; i <= b.N; i++ {
		stopCh := make(chan struct{})
		go func(ctx context.Context, q Queue[int]) {
			for {
				select {
				case <-ctx.Done():
					return
				default:
					item, ok := q.Dequeue()
					if ok && item == iterCount {
						close(stopCh)
						return
					}
				}
			}
		}(ctx, q)

		for i := 0; i < iterCount; i++ {
			q.Enqueue(i + 1)
		}
		<-stopCh
	}
	b.StopTimer()
}

func benchChannel(b *testing.B, iterCount int) {
	ctx := context.Background()
	input := make(chan int, iterCount)

	b.ResetTimer()
	for i := 0; i <= b.N; i++ {
		stopCh := make(chan struct{})
		go func(ctx context.Context, input chan int) {
			for {
				select {
				case <-ctx.Done():
					return
				case data := <-input:
					if data == iterCount {
						close(stopCh)
						return
					}
				}
			}
		}(ctx, input)

		for i := 0; i < iterCount; i++ {
			input <- (i + 1)
		}
		<-stopCh
	}
	b.StopTimer()
}
