package testutil_test

import (
	"github.com/APTrust/livepremis/util/testutil"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestOnFinish(t *testing.T) {
	delegate := testutil.NewNSQTestDelegate()
	message := testutil.MakeNsqMessage("/data/premis/record.xml")
	delegate.OnFinish(message)
	assert.Equal(t, message.Body, delegate.Message.Body)
	assert.Equal(t, "finish", delegate.LastOperation())
	assert.True(t, delegate.WaitForResponse(time.Second))
}

func TestOnRequeue(t *testing.T) {
	delegate := testutil.NewNSQTestDelegate()
	message := testutil.MakeNsqMessage("/data/premis/record.xml")
	delegate.OnRequeue(message, time.Minute*3, true)
	assert.Equal(t, message.Body, delegate.Message.Body)
	assert.Equal(t, "requeue", delegate.LastOperation())
	assert.Equal(t, time.Minute*3, delegate.Delay)
	assert.True(t, delegate.Backoff)
	assert.True(t, delegate.WaitForResponse(time.Second))
}

func TestOnTouch(t *testing.T) {
	delegate := testutil.NewNSQTestDelegate()
	message := testutil.MakeNsqMessage("/data/premis/record.xml")
	delegate.OnTouch(message)
	assert.Equal(t, message.Body, delegate.Message.Body)
	assert.Equal(t, "touch", delegate.LastOperation())
	// Touch doesn't count as a response.
	assert.False(t, delegate.WaitForResponse(10*time.Millisecond))
}

func TestOperationsAccumulate(t *testing.T) {
	delegate := testutil.NewNSQTestDelegate()
	message := testutil.MakeNsqMessage("/data/premis/record.xml")
	message.Delegate = delegate
	message.Touch()
	message.Finish()
	assert.Equal(t, []string{"touch", "finish"}, delegate.Operations)
}
