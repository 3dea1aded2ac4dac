package premis_test

import (
	"fmt"
	"github.com/APTrust/livepremis/premis"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	parseErr := &premis.RecordParseError{Locator: "a.xml", Reason: "bad", Err: fmt.Errorf("eof")}
	assert.Equal(t, "a.xml is not a valid premis record: bad: eof", parseErr.Error())

	missing := &premis.MissingObjectError{Locator: "a.xml"}
	assert.Equal(t, "premis record a.xml has no objects", missing.Error())

	integrity := &premis.DataIntegrityError{Field: "size", Value: "x", Message: "size is not an integer"}
	assert.Equal(t, "size 'x': size is not an integer", integrity.Error())

	rejected := &premis.EventAppendRejected{EventIdentifier: "e-1", Reason: "duplicate"}
	assert.Equal(t, "cannot append event e-1: duplicate", rejected.Error())

	serialization := &premis.SerializationError{Locator: "a.xml", Err: fmt.Errorf("disk full")}
	assert.Equal(t, "cannot write premis record to a.xml: disk full", serialization.Error())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, premis.IsFatal(&premis.RecordParseError{}))
	assert.True(t, premis.IsFatal(&premis.MissingObjectError{}))
	assert.True(t, premis.IsFatal(&premis.DataIntegrityError{}))
	assert.True(t, premis.IsFatal(&premis.EventAppendRejected{}))
	assert.False(t, premis.IsFatal(&premis.SerializationError{}))
	assert.False(t, premis.IsFatal(fmt.Errorf("connection reset")))
	assert.False(t, premis.IsFatal(nil))
}
