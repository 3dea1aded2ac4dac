package util

import (
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"regexp"
	"strings"
)

var reUUID *regexp.Regexp = regexp.MustCompile(`(?i)^([a-f\d]{8}(-[a-f\d]{4}){3}-[a-f\d]{12}?)$`)

// Returns true if the string looks like a UUID. We use this to check
// the identifiers of events we generate.
func LooksLikeUUID(uuid string) bool {
	return reUUID.Match([]byte(uuid))
}

// Cleans a string we might find a config file or on the command line,
// trimming leading and trailing spaces, single quotes and double quotes.
// Note that leading and trailing spaces inside the quotes are not trimmed.
func CleanString(str string) string {
	cleanStr := strings.TrimSpace(str)
	// Strip leading and traling quotes, but only if string has matching
	// quotes at both ends.
	if len(cleanStr) > 1 &&
		(strings.HasPrefix(cleanStr, "'") && strings.HasSuffix(cleanStr, "'") ||
			strings.HasPrefix(cleanStr, "\"") && strings.HasSuffix(cleanStr, "\"")) {
		return cleanStr[1 : len(cleanStr)-1]
	}
	return cleanStr
}

// IsS3Location returns true if a PREMIS contentLocationValue points
// to an S3 object rather than to a file on local disk.
func IsS3Location(location string) bool {
	return strings.HasPrefix(location, constants.S3UriPrefix) ||
		strings.HasPrefix(location, constants.S3Scheme)
}

// Given an S3 URI, returns the bucket name and key. Both path-style
// https URLs and s3://bucket/key URIs are accepted.
func BucketNameAndKey(uri string) (string, string, error) {
	relativeUri := uri
	if strings.HasPrefix(uri, constants.S3UriPrefix) {
		relativeUri = strings.Replace(uri, constants.S3UriPrefix, "", 1)
	} else if strings.HasPrefix(uri, constants.S3Scheme) {
		relativeUri = strings.Replace(uri, constants.S3Scheme, "", 1)
	} else {
		return "", "", fmt.Errorf("'%s' is not an S3 URI", uri)
	}
	parts := strings.SplitN(relativeUri, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("S3 URI '%s' is missing bucket or key", uri)
	}
	return parts[0], parts[1], nil
}

// Returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}
