package workers

import (
	"errors"
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/context"
	"github.com/APTrust/livepremis/network"
	"github.com/APTrust/livepremis/premis"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var errEnoughQueued = errors.New("queued the maximum number of records")

type PremisQueueFixity struct {
	Context    *context.Context
	NSQClient  *network.NSQClient
	maxRecords int
	pathLike   string
	nsqTopic   string
}

// NewPremisQueueFixity creates a new worker to push records needing
// a fixity check into the fixity worker's NSQ topic. Param maxRecords
// is the maximum number of records to queue. Param pathLike, if not
// empty, limits queueing to records whose path contains it.
func NewPremisQueueFixity(_context *context.Context, pathLike string, maxRecords int) *PremisQueueFixity {
	_context.MessageLog.Infof("NSQ address: %s", _context.Config.NsqdHttpAddress)
	return &PremisQueueFixity{
		Context:    _context,
		NSQClient:  _context.NSQClient,
		maxRecords: maxRecords,
		pathLike:   pathLike,
		nsqTopic:   _context.Config.FixityWorker.NsqTopic,
	}
}

// Run walks Config.RecordRoot and queues each PREMIS record whose
// last fixity check is older than Config.MaxDaysSinceFixityCheck,
// or which has never been checked. It stops after queuing
// maxRecords and returns the number queued.
func (queue *PremisQueueFixity) Run() (int, error) {
	config := queue.Context.Config
	if config.RecordRoot == "" {
		return 0, fmt.Errorf("Config.RecordRoot is not set")
	}
	if queue.maxRecords < 1 {
		return 0, nil
	}
	hours := config.MaxDaysSinceFixityCheck * 24 * -1
	sinceWhen := time.Now().Add(time.Duration(hours) * time.Hour).UTC()
	queue.Context.MessageLog.Infof("Queuing up to %d records under %s not checked since %s to topic %s",
		queue.maxRecords, config.RecordRoot, sinceWhen.Format(time.RFC3339), queue.nsqTopic)
	if queue.pathLike != "" {
		queue.Context.MessageLog.Infof("Queuing only records whose path contains %s", queue.pathLike)
	}

	itemsAdded := 0
	err := filepath.Walk(config.RecordRoot, func(recordPath string, info os.FileInfo, err error) error {
		if err != nil {
			queue.Context.MessageLog.Warningf("Skipping %s: %v", recordPath, err)
			return nil
		}
		if info.IsDir() || !queue.wanted(recordPath) {
			return nil
		}
		if !queue.needsCheck(recordPath, sinceWhen) {
			return nil
		}
		if queue.addToNSQ(recordPath) {
			itemsAdded += 1
		}
		if itemsAdded >= queue.maxRecords {
			return errEnoughQueued
		}
		return nil
	})
	if err == errEnoughQueued {
		err = nil
	}
	queue.Context.MessageLog.Infof("Queued %d records", itemsAdded)
	return itemsAdded, err
}

func (queue *PremisQueueFixity) wanted(recordPath string) bool {
	if !strings.EqualFold(filepath.Ext(recordPath), ".xml") {
		return false
	}
	return queue.pathLike == "" || strings.Contains(recordPath, queue.pathLike)
}

// needsCheck returns true if the record at recordPath has no fixity
// check event dated after sinceWhen. Records we can't parse are
// logged and skipped: the fixity worker would reject them anyway.
func (queue *PremisQueueFixity) needsCheck(recordPath string, sinceWhen time.Time) bool {
	record := premis.OpenRecordLogged(recordPath, queue.Context.MessageLog)
	if record == nil {
		return false
	}
	lastCheck, found := premis.LastEventTime(record.Events, constants.EventFixityCheck)
	if found && lastCheck.After(sinceWhen) {
		queue.Context.MessageLog.Debugf("Skipping %s: last checked %s",
			recordPath, lastCheck.Format(time.RFC3339))
		return false
	}
	return true
}

func (queue *PremisQueueFixity) addToNSQ(recordPath string) bool {
	err := queue.NSQClient.Enqueue(queue.nsqTopic, recordPath)
	if err != nil {
		queue.Context.MessageLog.Errorf("Error sending '%s' to %s: %v",
			recordPath, queue.nsqTopic, err)
		return false
	}
	queue.Context.MessageLog.Infof("Added '%s' to %s", recordPath, queue.nsqTopic)
	return true
}
