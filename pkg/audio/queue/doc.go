// ABOUTME: Bounded blocking queue package
// ABOUTME: Provides a generic single-producer single-consumer FIFO with backpressure
// Package queue provides a bounded FIFO shared by exactly one producer and
// one consumer.
//
// The producer blocks while the queue is full ("space available" wait) and
// the consumer blocks while it is empty ("data available" wait). Cancel
// releases a blocked producer, Close tells the consumer no more items will
// arrive, and a context bounds how long the consumer waits.
//
// Example:
//
//	q := queue.New[audio.Frame](1024)
//	go func() {
//	    defer q.Close()
//	    q.Push(frames)
//	}()
//	out, err := q.Pop(ctx, 512)
package queue
