package premis

import (
	"encoding/xml"
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

// Serialize writes record as indented PREMIS XML, with an XML
// header, to writer.
func Serialize(record *Record, writer io.Writer) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	record.XMLName = xml.Name{Space: constants.PremisNamespace, Local: rootElement}
	record.PremisPrefix = constants.PremisNamespace
	record.Attrs = literalAttrs(record.Attrs, "premis")
	if record.Version == "" {
		record.Version = constants.PremisVersion
	}
	if _, err := io.WriteString(writer, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return err
	}
	_, err := io.WriteString(writer, "\n")
	return err
}

// WriteRecord writes record to filePath, replacing any file already
// there. The record is written to a temp file in the same directory
// and renamed into place, so readers never see a partial record.
// Any failure comes back as a *SerializationError.
func WriteRecord(record *Record, filePath string) error {
	dir := filepath.Dir(filePath)
	tempFile, err := ioutil.TempFile(dir, "."+filepath.Base(filePath)+".")
	if err != nil {
		return &SerializationError{Locator: filePath, Err: err}
	}
	tempName := tempFile.Name()
	err = Serialize(record, tempFile)
	if err == nil {
		err = tempFile.Sync()
	}
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tempName, 0644)
	}
	if err == nil {
		err = os.Rename(tempName, filePath)
	}
	if err != nil {
		os.Remove(tempName)
		return &SerializationError{Locator: filePath, Err: err}
	}
	return nil
}
