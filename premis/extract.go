package premis

import (
	"strconv"
	"strings"
	"time"
)

// EventSummary is a quick look at one event: its type, when it
// happened, and how it turned out. Details, agents and linked
// objects are dropped.
type EventSummary struct {
	EventType     string `json:"eventType"`
	EventDateTime string `json:"eventDateTime"`
	EventOutcome  string `json:"eventOutcome"`
}

/*
IdentityData is the flattened set of values a fixity check needs
from a record: where the content lives, what it's called, how big
it should be, and the digest to compare against.

FixityDigest is meaningful only when HasFixity is true. Legacy
records often lack a digest for the algorithm we want, and that is
not an error.
*/
type IdentityData struct {
	ContentLocation string         `json:"contentLocation"`
	ObjectId        string         `json:"objectId"`
	FileSize        int64          `json:"fileSize"`
	FixityAlgorithm string         `json:"fixityAlgorithm"`
	FixityDigest    string         `json:"fixityDigest"`
	HasFixity       bool           `json:"hasFixity"`
	Events          []EventSummary `json:"events"`
	Record          *Record        `json:"-"`
}

// ExtractIdentityData pulls identity and fixity data from the first
// object in record. Algorithm is the digest algorithm to look up,
// matched exactly ("md5", "sha256").
//
// A record with no objects returns a *MissingObjectError. A first
// object without the identifier, characteristics, size or storage
// location we need returns a *DataIntegrityError.
func ExtractIdentityData(record *Record, algorithm string) (*IdentityData, error) {
	if record == nil || len(record.Objects) == 0 {
		return nil, &MissingObjectError{}
	}
	object := record.Objects[0]
	chars := FindObjectCharacteristics(object)
	if chars == nil {
		return nil, &DataIntegrityError{
			Field:   "objectCharacteristics",
			Message: "first object has no objectCharacteristics",
		}
	}
	objId, err := FindObjectId(object)
	if err != nil {
		return nil, err
	}
	size, err := FindSize(chars)
	if err != nil {
		return nil, err
	}
	contentLocation, err := FindContentLocation(object)
	if err != nil {
		return nil, err
	}
	digest, found := FindFixity(chars, algorithm)
	return &IdentityData{
		ContentLocation: contentLocation,
		ObjectId:        objId,
		FileSize:        size,
		FixityAlgorithm: algorithm,
		FixityDigest:    digest,
		HasFixity:       found,
		Events:          EventsSummary(record),
		Record:          record,
	}, nil
}

// ExtractIdentityDataFromFile loads the record at filePath and
// extracts its identity data.
func ExtractIdentityDataFromFile(filePath, algorithm string) (*IdentityData, error) {
	record, err := OpenRecord(filePath)
	if err != nil {
		return nil, err
	}
	data, err := ExtractIdentityData(record, algorithm)
	if missing, ok := err.(*MissingObjectError); ok {
		missing.Locator = filePath
	}
	return data, err
}

// FindObjectCharacteristics returns the first characteristics entry
// of object, or nil.
func FindObjectCharacteristics(object *Object) *ObjectCharacteristics {
	if object == nil || len(object.ObjectCharacteristics) == 0 {
		return nil
	}
	return object.ObjectCharacteristics[0]
}

// FindFixity returns the digest of the first fixity entry whose
// algorithm name is exactly algorithm. The bool is false if no
// entry matches.
func FindFixity(chars *ObjectCharacteristics, algorithm string) (string, bool) {
	if chars == nil {
		return "", false
	}
	for _, fixity := range chars.Fixity {
		if fixity.MessageDigestAlgorithm == algorithm {
			return fixity.MessageDigest, true
		}
	}
	return "", false
}

// FindSize returns the declared size in bytes.
func FindSize(chars *ObjectCharacteristics) (int64, error) {
	sizeText := strings.TrimSpace(chars.Size)
	if sizeText == "" {
		return 0, &DataIntegrityError{
			Field:   "size",
			Message: "object has no declared size",
		}
	}
	size, err := strconv.ParseInt(sizeText, 10, 64)
	if err != nil {
		return 0, &DataIntegrityError{
			Field:   "size",
			Value:   sizeText,
			Message: "size is not an integer",
		}
	}
	if size < 0 {
		return 0, &DataIntegrityError{
			Field:   "size",
			Value:   sizeText,
			Message: "size cannot be negative",
		}
	}
	return size, nil
}

// FindObjectId returns the value of the object's first identifier.
func FindObjectId(object *Object) (string, error) {
	if len(object.ObjectIdentifiers) == 0 ||
		strings.TrimSpace(object.ObjectIdentifiers[0].ObjectIdentifierValue) == "" {
		return "", &DataIntegrityError{
			Field:   "objectIdentifier",
			Message: "first object has no identifier",
		}
	}
	return strings.TrimSpace(object.ObjectIdentifiers[0].ObjectIdentifierValue), nil
}

// FindContentLocation returns the content location of the object's
// first storage entry.
func FindContentLocation(object *Object) (string, error) {
	if len(object.Storage) == 0 || object.Storage[0].ContentLocation == nil {
		return "", &DataIntegrityError{
			Field:   "contentLocation",
			Message: "first object has no storage content location",
		}
	}
	return strings.TrimSpace(object.Storage[0].ContentLocation.ContentLocationValue), nil
}

// EventsSummary returns one EventSummary per event, in record order.
func EventsSummary(record *Record) []EventSummary {
	summaries := make([]EventSummary, 0, len(record.Events))
	for _, event := range record.Events {
		summaries = append(summaries, EventSummary{
			EventType:     event.EventType,
			EventDateTime: event.EventDateTime,
			EventOutcome:  event.Outcome(),
		})
	}
	return summaries
}

// FindParticularEvent returns the first event whose type is
// eventType, or nil.
func FindParticularEvent(events []*Event, eventType string) *Event {
	for _, event := range events {
		if event.EventType == eventType {
			return event
		}
	}
	return nil
}

// eventTimeFormats are the eventDateTime layouts we can parse, most
// common first.
var eventTimeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseEventDateTime parses an ISO-8601 eventDateTime. Values
// without a zone are taken to be UTC.
func ParseEventDateTime(eventDateTime string) (time.Time, error) {
	value := strings.TrimSpace(eventDateTime)
	for _, layout := range eventTimeFormats {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, &DataIntegrityError{
		Field:   "eventDateTime",
		Value:   eventDateTime,
		Message: "is not an ISO-8601 date/time",
	}
}

// LastEventTime returns the latest date/time of any event of type
// eventType, and false if there is no such event with a date we can
// parse.
func LastEventTime(events []*Event, eventType string) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, event := range events {
		if event.EventType != eventType {
			continue
		}
		eventTime, err := ParseEventDateTime(event.EventDateTime)
		if err != nil {
			continue
		}
		if !found || eventTime.After(latest) {
			latest = eventTime
			found = true
		}
	}
	return latest, found
}
