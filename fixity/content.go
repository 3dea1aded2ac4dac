// Package fixity reads the content behind a premis record's content
// location and calculates its digest.
package fixity

import (
	"fmt"
	"github.com/APTrust/livepremis/util"
	"github.com/APTrust/livepremis/util/fileutil"
	"io"
	"os"
)

// ContentOpener opens the bytes at a content location.
type ContentOpener interface {
	OpenContent(location string) (io.ReadCloser, error)
}

// ContentMissingError means there is nothing at the content
// location: the file was deleted, or the record points to the
// wrong place.
type ContentMissingError struct {
	Location string
	Err      error
}

func (e *ContentMissingError) Error() string {
	return fmt.Sprintf("content at %s is missing: %v", e.Location, e.Err)
}

// LocalOpener opens content locations that are paths on local disk.
type LocalOpener struct{}

func (opener LocalOpener) OpenContent(location string) (io.ReadCloser, error) {
	file, err := os.Open(location)
	if os.IsNotExist(err) {
		return nil, &ContentMissingError{Location: location, Err: err}
	} else if err != nil {
		return nil, err
	}
	return file, nil
}

// Opener sends S3 locations to an S3 reader and everything else to
// local disk. S3 may be nil if no records point into S3.
type Opener struct {
	Local ContentOpener
	S3    ContentOpener
}

// NewOpener returns an Opener that reads local files and, if s3 is
// not nil, S3 objects.
func NewOpener(s3 ContentOpener) *Opener {
	return &Opener{
		Local: LocalOpener{},
		S3:    s3,
	}
}

func (opener *Opener) OpenContent(location string) (io.ReadCloser, error) {
	if util.IsS3Location(location) {
		if opener.S3 == nil {
			return nil, fmt.Errorf("Cannot read %s: no S3 client is configured", location)
		}
		return opener.S3.OpenContent(location)
	}
	return opener.Local.OpenContent(location)
}

// Digest is the result of reading content through a hash.
type Digest struct {
	Algorithm string
	Value     string
	Size      int64
}

// CalculateDigest reads the content at location and returns its
// digest and actual size in bytes.
func CalculateDigest(opener ContentOpener, location, algorithm string) (*Digest, error) {
	hash, err := fileutil.NewHash(algorithm)
	if err != nil {
		return nil, err
	}
	reader, err := opener.OpenContent(location)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	size, err := io.Copy(hash, reader)
	if err != nil {
		return nil, fmt.Errorf("Error reading %s: %v", location, err)
	}
	return &Digest{
		Algorithm: algorithm,
		Value:     fmt.Sprintf("%x", hash.Sum(nil)),
		Size:      size,
	}, nil
}
