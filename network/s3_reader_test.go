package network_test

import (
	"github.com/APTrust/livepremis/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

const foxContent = "The quick brown fox jumps over the lazy dog"

// s3Handler serves one object, /premis-content/objects/fox.txt,
// and 404s with an S3-style error for everything else.
func s3Handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/premis-content/objects/fox.txt" {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != "HEAD" {
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>` +
				`<Key>` + r.URL.Path + `</Key><BucketName>premis-content</BucketName></Error>`))
		}
		return
	}
	w.Header().Set("Last-Modified", time.Date(2017, 6, 12, 9, 0, 0, 0, time.UTC).Format(http.TimeFormat))
	w.Header().Set("ETag", `"9e107d9d372bb6826bd81d3542a419d6"`)
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(len(foxContent)))
	w.WriteHeader(http.StatusOK)
	if r.Method != "HEAD" {
		w.Write([]byte(foxContent))
	}
}

func newS3Reader(t *testing.T, serverUrl string) *network.S3Reader {
	endpoint := strings.TrimPrefix(serverUrl, "http://")
	reader, err := network.NewS3Reader(endpoint, "TestKeyId", "TestSecretKey", "us-east-1", false)
	require.Nil(t, err)
	return reader
}

func TestS3ReaderOpenContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(s3Handler))
	defer server.Close()
	reader := newS3Reader(t, server.URL)

	content, err := reader.OpenContent("s3://premis-content/objects/fox.txt")
	require.Nil(t, err)
	require.NotNil(t, content)
	data, err := ioutil.ReadAll(content)
	content.Close()
	require.Nil(t, err)
	assert.Equal(t, foxContent, string(data))

	size, err := reader.ObjectSize("s3://premis-content/objects/fox.txt")
	require.Nil(t, err)
	assert.EqualValues(t, len(foxContent), size)
}

func TestS3ReaderMissingObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(s3Handler))
	defer server.Close()
	reader := newS3Reader(t, server.URL)

	content, err := reader.OpenContent("s3://premis-content/objects/missing.txt")
	assert.Nil(t, content)
	require.NotNil(t, err)
	missingErr, ok := err.(*network.S3ObjectMissingError)
	require.True(t, ok, "Expected *S3ObjectMissingError, got %T", err)
	assert.Equal(t, "s3://premis-content/objects/missing.txt", missingErr.Location)
	assert.Equal(t, "NoSuchKey", missingErr.Code)

	_, err = reader.ObjectSize("s3://premis-content/objects/missing.txt")
	_, ok = err.(*network.S3ObjectMissingError)
	assert.True(t, ok, "Expected *S3ObjectMissingError, got %T", err)
}

func TestS3ReaderBadLocation(t *testing.T) {
	reader, err := network.NewS3Reader("s3.amazonaws.com", "TestKeyId", "TestSecretKey", "", true)
	require.Nil(t, err)
	_, err = reader.OpenContent("/data/repository/fox.txt")
	assert.NotNil(t, err)
	_, err = reader.ObjectSize("s3://bucket-only")
	assert.NotNil(t, err)
}

func TestS3ObjectMissingError(t *testing.T) {
	err := &network.S3ObjectMissingError{Location: "s3://b/k", Code: "NoSuchKey"}
	assert.Equal(t, "S3 object s3://b/k does not exist (NoSuchKey)", err.Error())
}
