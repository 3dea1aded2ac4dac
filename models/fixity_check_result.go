package models

import (
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/premis"
	"github.com/nsqio/go-nsq"
	"strings"
	"time"
)

// StageSummary describes one stage of a fixity check: checking the
// digest, or recording the outcome in the premis record.
type StageSummary struct {
	// AttemptNumber matches the NSQ message's attempt count.
	AttemptNumber uint16

	// ErrorIsFatal means requeueing won't help. A malformed record
	// or a missing content file stays broken no matter how often we
	// look at it.
	ErrorIsFatal bool

	Errors     []string
	StartedAt  time.Time
	FinishedAt time.Time
}

func NewStageSummary() *StageSummary {
	return &StageSummary{
		Errors: make([]string, 0),
	}
}

func (summary *StageSummary) Start() {
	summary.StartedAt = time.Now().UTC()
}

func (summary *StageSummary) Started() bool {
	return !summary.StartedAt.IsZero()
}

func (summary *StageSummary) Finish() {
	summary.FinishedAt = time.Now().UTC()
}

func (summary *StageSummary) Finished() bool {
	return !summary.FinishedAt.IsZero()
}

// RunTime returns how long the stage took, or has taken so far.
func (summary *StageSummary) RunTime() time.Duration {
	if summary.StartedAt.IsZero() {
		return time.Duration(0)
	}
	endTime := summary.FinishedAt
	if endTime.IsZero() {
		endTime = time.Now().UTC()
	}
	return endTime.Sub(summary.StartedAt)
}

func (summary *StageSummary) Succeeded() bool {
	return summary.Finished() && len(summary.Errors) == 0
}

func (summary *StageSummary) AddError(format string, a ...interface{}) {
	summary.Errors = append(summary.Errors, fmt.Sprintf(format, a...))
}

func (summary *StageSummary) HasErrors() bool {
	return len(summary.Errors) > 0
}

func (summary *StageSummary) AllErrorsAsString() string {
	return strings.Join(summary.Errors, "\n")
}

/*
FixityCheckResult follows one premis record through the fixity
worker. The message body is the record's path. IdentityData comes
from the record; CalculatedDigest comes from reading the content
the record points to.
*/
type FixityCheckResult struct {
	// NSQMessage is the message being processed. Not serialized,
	// because it changes with each attempt.
	NSQMessage *nsq.Message `json:"-"`

	RecordPath   string
	IdentityData *premis.IdentityData `json:"-"`

	// ContentPath is where we actually read the bytes: a local path
	// or an S3 URI.
	ContentPath      string
	Algorithm        string
	CalculatedDigest string
	CalculatedSize   int64

	// ContentMissing means nothing exists at ContentPath. That is
	// a failed fixity check, not a processing error.
	ContentMissing bool

	// EventIdentifier is the identifier of the fixity check event
	// appended to the record.
	EventIdentifier string
	AgentIdentifier string

	CheckSummary  *StageSummary
	RecordSummary *StageSummary
}

// NewFixityCheckResult returns a result for message, whose body
// is a record path.
func NewFixityCheckResult(message *nsq.Message, algorithm string) *FixityCheckResult {
	result := &FixityCheckResult{
		NSQMessage:    message,
		Algorithm:     algorithm,
		CheckSummary:  NewStageSummary(),
		RecordSummary: NewStageSummary(),
	}
	if message != nil {
		result.RecordPath = strings.TrimSpace(string(message.Body))
		result.CheckSummary.AttemptNumber = message.Attempts
		result.RecordSummary.AttemptNumber = message.Attempts
	}
	return result
}

// RecordedDigest returns the digest the record holds for our
// algorithm, and whether the record has one at all.
func (result *FixityCheckResult) RecordedDigest() (string, bool) {
	if result.IdentityData == nil {
		return "", false
	}
	return result.IdentityData.FixityDigest, result.IdentityData.HasFixity
}

// Matched returns true if we calculated a digest and it equals the
// recorded one. Digests compare case-insensitively, since some
// tools write hex in upper case.
func (result *FixityCheckResult) Matched() bool {
	recorded, found := result.RecordedDigest()
	return found && result.CalculatedDigest != "" &&
		strings.EqualFold(recorded, result.CalculatedDigest)
}

// SizeMatched returns true if the content is the size the record
// says it should be.
func (result *FixityCheckResult) SizeMatched() bool {
	return result.IdentityData != nil && !result.ContentMissing &&
		result.IdentityData.FileSize == result.CalculatedSize
}

// Outcome returns the premis event outcome for this check: SUCCESS
// only if both digest and size match.
func (result *FixityCheckResult) Outcome() string {
	if result.Matched() && result.SizeMatched() {
		return constants.OutcomeSuccess
	}
	return constants.OutcomeFailure
}

// OutcomeMessage describes the result of the check, for the event's
// outcome detail note.
func (result *FixityCheckResult) OutcomeMessage() string {
	recorded, _ := result.RecordedDigest()
	if result.ContentMissing {
		return fmt.Sprintf("content is missing from %s", result.ContentPath)
	}
	if !result.Matched() {
		return fmt.Sprintf("%s digest mismatch: record says %s, content has %s",
			result.Algorithm, recorded, result.CalculatedDigest)
	}
	if !result.SizeMatched() {
		return fmt.Sprintf("size mismatch: record says %d bytes, content has %d",
			result.IdentityData.FileSize, result.CalculatedSize)
	}
	return fmt.Sprintf("%s digest %s matches", result.Algorithm, result.CalculatedDigest)
}

// ObjectId returns the identifier of the record's object, if we've
// read it.
func (result *FixityCheckResult) ObjectId() string {
	if result.IdentityData == nil {
		return ""
	}
	return result.IdentityData.ObjectId
}

// HasErrors returns true if either stage had errors.
func (result *FixityCheckResult) HasErrors() bool {
	return result.CheckSummary.HasErrors() || result.RecordSummary.HasErrors()
}

// ErrorIsFatal returns true if either stage had a fatal error.
func (result *FixityCheckResult) ErrorIsFatal() bool {
	return result.CheckSummary.ErrorIsFatal || result.RecordSummary.ErrorIsFatal
}

// AllErrorsAsString returns the errors from both stages.
func (result *FixityCheckResult) AllErrorsAsString() string {
	errors := make([]string, 0)
	errors = append(errors, result.CheckSummary.Errors...)
	errors = append(errors, result.RecordSummary.Errors...)
	return strings.Join(errors, "\n")
}
