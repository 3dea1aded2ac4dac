// Common vars and constants, shared by the premis, network and
// worker packages.
package constants

import (
	"regexp"
)

// PremisNamespace is the XML namespace of PREMIS 2.x records.
const PremisNamespace = "info:lc/xmlns/premis-v2"

// PremisVersion is written to the version attribute of the root
// element when we serialize a record.
const PremisVersion = "2.2"

// XsiNamespace is the XML Schema instance namespace. PREMIS objects
// carry xsi:type="premis:file" and friends.
const XsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// IdTypeDOI is the identifier type we assign to event identifiers,
// linking agent identifiers and linking object identifiers when we
// build new events.
const IdTypeDOI = "DOI"

// Event outcome statuses. Events we append to a record must use one
// of these.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)

var OutcomeStatuses []string = []string{
	OutcomeSuccess,
	OutcomeFailure,
}

// Digest algorithms, as they appear in messageDigestAlgorithm.
const (
	AlgMd5    = "md5"
	AlgSha1   = "sha1"
	AlgSha256 = "sha256"
	AlgSha512 = "sha512"
)

var ChecksumAlgorithms = []string{AlgMd5, AlgSha1, AlgSha256, AlgSha512}

// Agent types understood by the agent registry.
const (
	AgentTypePerson       = "person"
	AgentTypeOrganization = "organization"
	AgentTypeSoftware     = "software"
)

var AgentTypes []string = []string{
	AgentTypePerson,
	AgentTypeOrganization,
	AgentTypeSoftware,
}

// S3UriPrefix is the prefix of path-style S3 URLs. Content locations
// beginning with this or with S3Scheme are read through the S3 client.
const (
	S3UriPrefix = "https://s3.amazonaws.com/"
	S3Scheme    = "s3://"
)

// ISO8601Pattern loosely matches the date/time formats PREMIS allows
// in eventDateTime: a date, optionally followed by a time and zone.
var ISO8601Pattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)

// PREMIS Event types as defined by the Library of Congress at
// http://id.loc.gov/vocabulary/preservation/eventType
const (
	// The process whereby a repository actively obtains an object.
	EventCapture = "capture"

	// The process of coding data to save storage space or transmission time.
	EventCompression = "compression"

	// The act of creating a new object.
	EventCreation = "creation"

	// The process of removing an object from the inventory of a repository.
	EventDeaccession = "deaccession"

	// The process of reversing the effects of compression.
	EventDecompression = "decompression"

	// The process of converting encrypted data to plain text.
	EventDecryption = "decryption"

	// The process of removing an object from repository storage.
	EventDeletion = "deletion"

	// The process by which a message digest ("hash") is created.
	EventDigestCalculation = "message digest calculation"

	// The process of verifying that an object has not been changed in a given period.
	EventFixityCheck = "fixity check"

	// The process of adding objects to a preservation repository.
	EventIngestion = "ingestion"

	// A transformation of an object creating a version in a more contemporary format.
	EventMigration = "migration"

	// A transformation of an object creating a version more conducive to preservation.
	EventNormalization = "normalization"

	// The process of creating a copy of an object that is, bit-wise, identical to the original.
	EventReplication = "replication"

	// The process of determining that a decrypted digital signature matches an expected value.
	EventSignatureValidation = "digital signature validation"

	// The process of comparing an object with a standard and noting compliance or exceptions.
	EventValidation = "validation"

	// The process of scanning a file for malicious programs.
	EventVirusCheck = "virus check"
)

var EventTypes []string = []string{
	EventCapture,
	EventCompression,
	EventCreation,
	EventDeaccession,
	EventDecompression,
	EventDecryption,
	EventDeletion,
	EventDigestCalculation,
	EventFixityCheck,
	EventIngestion,
	EventMigration,
	EventNormalization,
	EventReplication,
	EventSignatureValidation,
	EventValidation,
	EventVirusCheck,
}

// NSQ topic that premis_fixity_check reads from.
const FixityTopic = "premis_fixity_topic"
