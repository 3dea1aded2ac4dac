package network

import (
	"fmt"
	"github.com/APTrust/livepremis/util"
	"github.com/minio/minio-go"
	"io"
)

// S3Reader streams the content of S3 objects named by premis
// content locations, so we can calculate digests without
// downloading to local disk first.
type S3Reader struct {
	client *minio.Client
}

// NewS3Reader returns an S3Reader for endpoint, which is a host
// without protocol, like "s3.amazonaws.com". Region may be empty,
// in which case the client looks up each bucket's region.
func NewS3Reader(endpoint, accessKeyId, secretAccessKey, region string, secure bool) (*S3Reader, error) {
	var client *minio.Client
	var err error
	if region == "" {
		client, err = minio.New(endpoint, accessKeyId, secretAccessKey, secure)
	} else {
		client, err = minio.NewWithRegion(endpoint, accessKeyId, secretAccessKey, secure, region)
	}
	if err != nil {
		return nil, fmt.Errorf("Cannot create S3 client for %s: %v", endpoint, err)
	}
	return &S3Reader{client: client}, nil
}

// OpenContent returns a reader for the S3 object at location, which
// may be an s3://bucket/key URI or a path-style https URL. The caller
// must close it. If the object does not exist, the error is an
// *S3ObjectMissingError.
func (reader *S3Reader) OpenContent(location string) (io.ReadCloser, error) {
	bucket, key, err := util.BucketNameAndKey(location)
	if err != nil {
		return nil, err
	}
	obj, err := reader.client.GetObject(bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject doesn't touch the network until the first read.
	// Stat now, so a missing object shows up here.
	if _, err = obj.Stat(); err != nil {
		obj.Close()
		return nil, wrapS3Error(location, err)
	}
	return obj, nil
}

// ObjectSize returns the size in bytes of the S3 object at location.
func (reader *S3Reader) ObjectSize(location string) (int64, error) {
	bucket, key, err := util.BucketNameAndKey(location)
	if err != nil {
		return 0, err
	}
	info, err := reader.client.StatObject(bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, wrapS3Error(location, err)
	}
	return info.Size, nil
}

// S3ObjectMissingError means the bucket or key named by a content
// location doesn't exist.
type S3ObjectMissingError struct {
	Location string
	Code     string
}

func (e *S3ObjectMissingError) Error() string {
	return fmt.Sprintf("S3 object %s does not exist (%s)", e.Location, e.Code)
}

func wrapS3Error(location string, err error) error {
	code := minio.ToErrorResponse(err).Code
	if code == "NoSuchKey" || code == "NoSuchBucket" {
		return &S3ObjectMissingError{Location: location, Code: code}
	}
	return fmt.Errorf("Error reading %s from S3: %v", location, err)
}
