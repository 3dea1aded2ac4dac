package testutil

import (
	"github.com/nsqio/go-nsq"
	"sync"
	"time"
)

// NSQTestDelegate stands in for nsqd in worker tests. Attach it as
// a message's Delegate and it records what the worker did with the
// message: finish, requeue or touch. It implements go-nsq's
// MessageDelegate interface.
type NSQTestDelegate struct {
	Message    *nsq.Message
	Delay      time.Duration
	Backoff    bool
	Operation  string
	Operations []string
	mutex      sync.Mutex
	done       chan struct{}
}

// NewNSQTestDelegate returns a pointer to a new NSQTestDelegate.
func NewNSQTestDelegate() *NSQTestDelegate {
	return &NSQTestDelegate{
		Operations: make([]string, 0),
		done:       make(chan struct{}, 10),
	}
}

// OnFinish receives the Finish() call from an NSQ message.
func (delegate *NSQTestDelegate) OnFinish(message *nsq.Message) {
	delegate.record(message, "finish")
}

// OnRequeue receives the Requeue() call from an NSQ message.
func (delegate *NSQTestDelegate) OnRequeue(message *nsq.Message, delay time.Duration, backoff bool) {
	delegate.mutex.Lock()
	delegate.Delay = delay
	delegate.Backoff = backoff
	delegate.mutex.Unlock()
	delegate.record(message, "requeue")
}

// OnTouch receives the Touch() call from an NSQ message.
func (delegate *NSQTestDelegate) OnTouch(message *nsq.Message) {
	delegate.record(message, "touch")
}

func (delegate *NSQTestDelegate) record(message *nsq.Message, operation string) {
	delegate.mutex.Lock()
	delegate.Message = message
	delegate.Operation = operation
	delegate.Operations = append(delegate.Operations, operation)
	delegate.mutex.Unlock()
	if operation != "touch" {
		select {
		case delegate.done <- struct{}{}:
		default:
		}
	}
}

// LastOperation returns the most recent operation.
func (delegate *NSQTestDelegate) LastOperation() string {
	delegate.mutex.Lock()
	defer delegate.mutex.Unlock()
	return delegate.Operation
}

// WaitForResponse blocks until the message is finished or requeued,
// or until timeout passes. It returns false on timeout.
func (delegate *NSQTestDelegate) WaitForResponse(timeout time.Duration) bool {
	select {
	case <-delegate.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
