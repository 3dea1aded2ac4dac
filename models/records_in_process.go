package models

import (
	"sort"
	"sync"
	"time"
)

// RecordsInProcess tracks which PREMIS records a worker is currently
// checking, and since when. NSQ may deliver the same record path
// twice, and two writers appending events to the same file would
// clobber each other, so workers skip paths already in here.
type RecordsInProcess struct {
	data  map[string]time.Time
	mutex *sync.RWMutex
}

// Creates a new empty RecordsInProcess.
func NewRecordsInProcess() *RecordsInProcess {
	return &RecordsInProcess{
		data:  make(map[string]time.Time),
		mutex: &sync.RWMutex{},
	}
}

// Add marks recordPath as in process. It returns false without
// changing anything if the path was already marked.
func (records *RecordsInProcess) Add(recordPath string) bool {
	records.mutex.Lock()
	defer records.mutex.Unlock()
	if _, exists := records.data[recordPath]; exists {
		return false
	}
	records.data[recordPath] = time.Now().UTC()
	return true
}

// StartedAt returns the time processing of recordPath began, or
// a zero time if it isn't in process.
func (records *RecordsInProcess) StartedAt(recordPath string) time.Time {
	records.mutex.RLock()
	startedAt := records.data[recordPath]
	records.mutex.RUnlock()
	return startedAt
}

// Returns true if recordPath is in process.
func (records *RecordsInProcess) Contains(recordPath string) bool {
	records.mutex.RLock()
	_, exists := records.data[recordPath]
	records.mutex.RUnlock()
	return exists
}

// Deletes the specified path.
func (records *RecordsInProcess) Delete(recordPath string) {
	records.mutex.Lock()
	delete(records.data, recordPath)
	records.mutex.Unlock()
}

// Returns a sorted slice of all paths in process.
func (records *RecordsInProcess) Paths() []string {
	records.mutex.RLock()
	paths := make([]string, 0, len(records.data))
	for recordPath := range records.data {
		paths = append(paths, recordPath)
	}
	records.mutex.RUnlock()
	sort.Strings(paths)
	return paths
}

// Count returns the number of records in process.
func (records *RecordsInProcess) Count() int {
	records.mutex.RLock()
	defer records.mutex.RUnlock()
	return len(records.data)
}
