package premis

import (
	"encoding/xml"
)

/*
Record is one PREMIS document: the provenance history of a single
digital object. A record loaded from disk always has at least one
Object. Only the first Object is consulted when we extract identity
and fixity data, but all of them are written back out.

Element order in these structs follows the PREMIS 2.2 schema,
because encoding/xml writes fields in declaration order.
*/
type Record struct {
	// XMLName is left untagged so that records with or without the
	// premis namespace (or with a premis: prefix) all parse.
	XMLName xml.Name

	Version string `xml:"version,attr,omitempty"`

	// Declared on the root when we write, so that QName values
	// such as xsi:type="premis:file" stay resolvable.
	PremisPrefix string `xml:"xmlns:premis,attr,omitempty"`

	// Other attributes on the root, including namespace declarations
	// that unmodelled elements may depend on.
	Attrs []xml.Attr `xml:",any,attr"`

	Objects []*Object `xml:"object"`
	Events  []*Event  `xml:"event"`
	Agents  []*Agent  `xml:"agent"`

	// Rights statements and anything else we don't model.
	// Kept verbatim so that writing a record doesn't lose them.
	Other []*RawElement `xml:",any"`
}

// RawElement holds an element we don't model, verbatim.
type RawElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	InnerXML string     `xml:",innerxml"`
}

// MarshalXML writes the element under its original name, with its
// own namespace declarations intact.
func (raw *RawElement) MarshalXML(encoder *xml.Encoder, start xml.StartElement) error {
	type plainElement RawElement
	out := plainElement(*raw)
	out.Attrs = literalAttrs(raw.Attrs)
	if raw.XMLName.Local != "" {
		start.Name = raw.XMLName
	}
	start.Attr = nil
	return encoder.EncodeElement(&out, start)
}

// literalAttrs turns namespace declarations, and attributes in a
// namespace declared among them, into literal prefixed names.
// encoding/xml writes an attribute's namespace under a prefix of its
// own making, which would break prefixes used in verbatim content.
// Declarations for prefixes in skip are dropped, as is a default
// namespace declaration, since the encoder writes those itself.
func literalAttrs(attrs []xml.Attr, skip ...string) []xml.Attr {
	prefixes := make(map[string]string)
	for _, attr := range attrs {
		if attr.Name.Space == "xmlns" {
			prefixes[attr.Value] = attr.Name.Local
		}
	}
	literal := make([]xml.Attr, 0, len(attrs))
	for _, attr := range attrs {
		name := attr.Name
		switch {
		case name.Space == "" && name.Local == "xmlns":
			continue
		case name.Space == "xmlns":
			if skipped(name.Local, skip) {
				continue
			}
			name = xml.Name{Local: "xmlns:" + name.Local}
		case name.Space != "" && prefixes[name.Space] != "":
			name = xml.Name{Local: prefixes[name.Space] + ":" + name.Local}
		}
		literal = append(literal, xml.Attr{Name: name, Value: attr.Value})
	}
	return literal
}

func skipped(prefix string, skip []string) bool {
	for _, s := range skip {
		if s == prefix {
			return true
		}
	}
	return false
}

// Object is a PREMIS object: a file, bitstream or representation.
type Object struct {
	XsiType                string                    `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr,omitempty"`
	ObjectIdentifiers      []*ObjectIdentifier       `xml:"objectIdentifier"`
	PreservationLevels     []*RawElement             `xml:"preservationLevel"`
	SignificantProperties  []*RawElement             `xml:"significantProperties"`
	ObjectCharacteristics  []*ObjectCharacteristics  `xml:"objectCharacteristics"`
	OriginalName           string                    `xml:"originalName,omitempty"`
	Storage                []*Storage                `xml:"storage"`
	Environments           []*RawElement             `xml:"environment"`
	SignatureInformation   []*RawElement             `xml:"signatureInformation"`
	Relationships          []*RawElement             `xml:"relationship"`
	LinkingEventIdentifier []*LinkingEventIdentifier `xml:"linkingEventIdentifier"`

	LinkingIntellectualEntityIdentifiers []*RawElement `xml:"linkingIntellectualEntityIdentifier"`
	LinkingRightsStatementIdentifiers    []*RawElement `xml:"linkingRightsStatementIdentifier"`
	Other                                []*RawElement `xml:",any"`
}

// ObjectIdentifier is a (type, value) pair naming an Object.
type ObjectIdentifier struct {
	ObjectIdentifierType  string `xml:"objectIdentifierType"`
	ObjectIdentifierValue string `xml:"objectIdentifierValue"`
}

// ObjectCharacteristics describes the technical properties of an
// Object. Size is kept as text so we can tell a missing or garbled
// size apart from zero.
type ObjectCharacteristics struct {
	CompositionLevel string        `xml:"compositionLevel"`
	Fixity           []*Fixity     `xml:"fixity"`
	Size             string        `xml:"size,omitempty"`
	Formats          []*Format     `xml:"format"`
	Other            []*RawElement `xml:",any"`
}

// Fixity is one (algorithm, digest) pair.
type Fixity struct {
	MessageDigestAlgorithm  string `xml:"messageDigestAlgorithm"`
	MessageDigest           string `xml:"messageDigest"`
	MessageDigestOriginator string `xml:"messageDigestOriginator,omitempty"`
}

type Format struct {
	FormatDesignation *FormatDesignation `xml:"formatDesignation,omitempty"`
	FormatRegistry    *RawElement        `xml:"formatRegistry,omitempty"`
	FormatNote        []string           `xml:"formatNote,omitempty"`
}

type FormatDesignation struct {
	FormatName    string `xml:"formatName"`
	FormatVersion string `xml:"formatVersion,omitempty"`
}

// Storage says where an Object's bytes live.
type Storage struct {
	ContentLocation *ContentLocation `xml:"contentLocation,omitempty"`
	StorageMedium   string           `xml:"storageMedium,omitempty"`
	Other           []*RawElement    `xml:",any"`
}

type ContentLocation struct {
	ContentLocationType  string `xml:"contentLocationType"`
	ContentLocationValue string `xml:"contentLocationValue"`
}

type LinkingEventIdentifier struct {
	LinkingEventIdentifierType  string `xml:"linkingEventIdentifierType"`
	LinkingEventIdentifierValue string `xml:"linkingEventIdentifierValue"`
}

// Event is a PREMIS event: ingest, fixity check, migration and so on.
// EventType is the event's category.
type Event struct {
	EventIdentifier          *EventIdentifier           `xml:"eventIdentifier"`
	EventType                string                     `xml:"eventType"`
	EventDateTime            string                     `xml:"eventDateTime"`
	EventDetail              string                     `xml:"eventDetail,omitempty"`
	EventOutcomeInformation  []*EventOutcomeInformation `xml:"eventOutcomeInformation"`
	LinkingAgentIdentifiers  []*LinkingAgentIdentifier  `xml:"linkingAgentIdentifier"`
	LinkingObjectIdentifiers []*LinkingObjectIdentifier `xml:"linkingObjectIdentifier"`
	Other                    []*RawElement              `xml:",any"`
}

type EventIdentifier struct {
	EventIdentifierType  string `xml:"eventIdentifierType"`
	EventIdentifierValue string `xml:"eventIdentifierValue"`
}

type EventOutcomeInformation struct {
	EventOutcome        string                `xml:"eventOutcome,omitempty"`
	EventOutcomeDetails []*EventOutcomeDetail `xml:"eventOutcomeDetail"`
	Other               []*RawElement         `xml:",any"`
}

type EventOutcomeDetail struct {
	EventOutcomeDetailNote       string        `xml:"eventOutcomeDetailNote,omitempty"`
	EventOutcomeDetailExtensions []*RawElement `xml:"eventOutcomeDetailExtension"`
	Other                        []*RawElement `xml:",any"`
}

type LinkingAgentIdentifier struct {
	LinkingAgentIdentifierType  string   `xml:"linkingAgentIdentifierType"`
	LinkingAgentIdentifierValue string   `xml:"linkingAgentIdentifierValue"`
	LinkingAgentRole            []string `xml:"linkingAgentRole,omitempty"`
}

type LinkingObjectIdentifier struct {
	LinkingObjectIdentifierType  string   `xml:"linkingObjectIdentifierType"`
	LinkingObjectIdentifierValue string   `xml:"linkingObjectIdentifierValue"`
	LinkingObjectRole            []string `xml:"linkingObjectRole,omitempty"`
}

// Agent is a PREMIS agent: the person, organization or software
// responsible for events.
type Agent struct {
	AgentIdentifiers []*AgentIdentifier `xml:"agentIdentifier"`
	AgentName        []string           `xml:"agentName,omitempty"`
	AgentType        string             `xml:"agentType,omitempty"`
	AgentNote        []string           `xml:"agentNote,omitempty"`

	AgentExtensions                   []*RawElement             `xml:"agentExtension"`
	LinkingEventIdentifiers           []*LinkingEventIdentifier `xml:"linkingEventIdentifier"`
	LinkingRightsStatementIdentifiers []*RawElement             `xml:"linkingRightsStatementIdentifier"`
	Other                             []*RawElement             `xml:",any"`
}

type AgentIdentifier struct {
	AgentIdentifierType  string `xml:"agentIdentifierType"`
	AgentIdentifierValue string `xml:"agentIdentifierValue"`
}

// NewRecord returns a record containing the specified objects
// and no events.
func NewRecord(objects ...*Object) *Record {
	return &Record{
		Objects: objects,
		Events:  make([]*Event, 0),
	}
}

// ObjectCount returns the number of objects in the record.
func (record *Record) ObjectCount() int {
	return len(record.Objects)
}

// EventCount returns the number of events in the record.
func (record *Record) EventCount() int {
	return len(record.Events)
}

// FindEventByIdentifier returns the event whose identifier value is
// identifierValue, or nil.
func (record *Record) FindEventByIdentifier(identifierValue string) *Event {
	for _, event := range record.Events {
		if event.IdentifierValue() == identifierValue {
			return event
		}
	}
	return nil
}

// IdentifierValue returns the event's identifier value, or an empty
// string if the event has no identifier.
func (event *Event) IdentifierValue() string {
	if event.EventIdentifier == nil {
		return ""
	}
	return event.EventIdentifier.EventIdentifierValue
}

// Outcome returns the eventOutcome of the first outcome information
// entry, or an empty string.
func (event *Event) Outcome() string {
	if len(event.EventOutcomeInformation) == 0 {
		return ""
	}
	return event.EventOutcomeInformation[0].EventOutcome
}

// OutcomeDetailNote returns the first detail note of the first
// outcome information entry, or an empty string.
func (event *Event) OutcomeDetailNote() string {
	if len(event.EventOutcomeInformation) == 0 {
		return ""
	}
	details := event.EventOutcomeInformation[0].EventOutcomeDetails
	if len(details) == 0 {
		return ""
	}
	return details[0].EventOutcomeDetailNote
}
