package queue

// Queue is a FIFO queue of arbitrary items.
type Queue interface {
	Enqueue(item interface{}) error
	ReadAllMessages() ([]interface{}, error)
	Size() int
}
