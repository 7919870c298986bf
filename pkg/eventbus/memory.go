package eventbus

import (
	"context"
	"hash/fnv"
	"sync"
)

// MemoryBus is an in-process bus over buffered channels. Each key is pinned to one
// partition and every partition has a single consumer, so messages for a key are
// handled in publish order.
type MemoryBus struct {
	partitions []chan Message

	mutex  sync.RWMutex
	closed bool
}

func NewMemoryBus(capacity int, consumers int) *MemoryBus {
	if consumers <= 0 {
		consumers = 1
	}

	partitionCapacity := capacity / consumers
	if partitionCapacity <= 0 {
		partitionCapacity = 1
	}

	partitions := make([]chan Message, consumers)
	for i := range partitions {
		partitions[i] = make(chan Message, partitionCapacity)
	}

	return &MemoryBus{partitions: partitions}
}

// Partition is the index of the partition that carries key
func (b *MemoryBus) Partition(key string) int {
	hash := fnv.New32a()
	hash.Write([]byte(key))

	return int(hash.Sum32() % uint32(len(b.partitions)))
}

func (b *MemoryBus) Publish(ctx context.Context, key string, payload []byte) error {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if b.closed {
		return &PublishError{Key: key, Cause: ErrClosed}
	}

	select {
	case b.partitions[b.Partition(key)] <- Message{Key: key, Payload: payload}:
		return nil
	case <-ctx.Done():
		return &PublishError{Key: key, Cause: ctx.Err()}
	}
}

func (b *MemoryBus) Subscribe(ctx context.Context, handler Handler) error {
	var wg sync.WaitGroup

	for _, partition := range b.partitions {
		wg.Add(1)
		go func(messages <-chan Message) {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case message, ok := <-messages:
					if !ok {
						return
					}
					handler(ctx, message)
				}
			}
		}(partition)
	}

	wg.Wait()

	return nil
}

func (b *MemoryBus) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.closed {
		b.closed = true
		for _, partition := range b.partitions {
			close(partition)
		}
	}

	return nil
}
