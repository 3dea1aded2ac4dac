package premis

import (
	"bytes"
	"encoding/xml"
	"github.com/op/go-logging"
	"io"
	"io/ioutil"
	"os"
)

const rootElement = "premis"

// OpenRecord reads and parses the PREMIS record at filePath.
// If the file is not a well-formed record, the error is a
// *RecordParseError and the record is nil.
func OpenRecord(filePath string) (*Record, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &RecordParseError{
			Locator: filePath,
			Reason:  "cannot open file",
			Err:     err,
		}
	}
	defer file.Close()
	return ParseRecord(file, filePath)
}

// OpenRecordLogged is OpenRecord for callers that want invalid
// records reported and skipped. It logs the failure, naming the
// file, and returns nil.
func OpenRecordLogged(filePath string, log *logging.Logger) *Record {
	record, err := OpenRecord(filePath)
	if err != nil {
		log.Errorf("%s is not a valid premis record: %v", filePath, err)
		return nil
	}
	return record
}

// ParseRecord parses a PREMIS record from reader. Locator
// names the source in error messages.
func ParseRecord(reader io.Reader, locator string) (*Record, error) {
	data, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, &RecordParseError{
			Locator: locator,
			Reason:  "read failed",
			Err:     err,
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &RecordParseError{
			Locator: locator,
			Reason:  "document is empty",
		}
	}
	record := &Record{}
	if err = xml.Unmarshal(data, record); err != nil {
		return nil, &RecordParseError{
			Locator: locator,
			Reason:  "xml is not well formed",
			Err:     err,
		}
	}
	if record.XMLName.Local != rootElement {
		return nil, &RecordParseError{
			Locator: locator,
			Reason:  "root element is <" + record.XMLName.Local + ">, expected <premis>",
		}
	}
	if len(record.Objects) == 0 {
		return nil, &RecordParseError{
			Locator: locator,
			Reason:  "record contains no <object> element",
		}
	}
	if record.Events == nil {
		record.Events = make([]*Event, 0)
	}
	return record, nil
}
