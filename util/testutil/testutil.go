package testutil

import (
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/premis"
	"github.com/icrowley/fake"
	"github.com/nsqio/go-nsq"
	"github.com/satori/go.uuid"
	"math/rand"
	"path/filepath"
	"strconv"
	"time"
)

// MakeObject returns a premis file object with one identifier, one
// characteristics entry holding size and fixities, and one storage
// entry pointing at contentLocation.
func MakeObject(objId string, size int64, contentLocation string, fixities ...*premis.Fixity) *premis.Object {
	return &premis.Object{
		XsiType: "premis:file",
		ObjectIdentifiers: []*premis.ObjectIdentifier{
			&premis.ObjectIdentifier{
				ObjectIdentifierType:  constants.IdTypeDOI,
				ObjectIdentifierValue: objId,
			},
		},
		ObjectCharacteristics: []*premis.ObjectCharacteristics{
			&premis.ObjectCharacteristics{
				CompositionLevel: "0",
				Fixity:           fixities,
				Size:             strconv.FormatInt(size, 10),
			},
		},
		Storage: []*premis.Storage{
			&premis.Storage{
				ContentLocation: &premis.ContentLocation{
					ContentLocationType:  "filepath",
					ContentLocationValue: contentLocation,
				},
			},
		},
	}
}

// MakeRecord returns a record with a single object and no events.
// The object has one fixity entry, algorithm:digest.
func MakeRecord(objId string, size int64, algorithm, digest string) *premis.Record {
	contentLocation := filepath.Join("/data/repository", objId)
	fixity := &premis.Fixity{
		MessageDigestAlgorithm: algorithm,
		MessageDigest:          digest,
	}
	return premis.NewRecord(MakeObject(objId, size, contentLocation, fixity))
}

// MakeRandomRecord returns a record with one object whose values
// are all random, plus eventCount random events linked to it.
func MakeRandomRecord(eventCount int) *premis.Record {
	objId := uuid.NewV4().String()
	fixities := []*premis.Fixity{
		&premis.Fixity{MessageDigestAlgorithm: constants.AlgMd5, MessageDigest: fake.Word()},
		&premis.Fixity{MessageDigestAlgorithm: constants.AlgSha256, MessageDigest: fake.Word()},
	}
	object := MakeObject(objId, int64(rand.Intn(5000000)), RandomContentLocation(), fixities...)
	object.OriginalName = fake.Word() + ".txt"
	record := premis.NewRecord(object)
	for i := 0; i < eventCount; i++ {
		record.Events = append(record.Events, MakeEvent(objId))
	}
	record.Agents = append(record.Agents, MakeAgent())
	return record
}

// MakeEvent returns a random, valid event linked to object objId.
func MakeEvent(objId string) *premis.Event {
	return &premis.Event{
		EventIdentifier: &premis.EventIdentifier{
			EventIdentifierType:  constants.IdTypeDOI,
			EventIdentifierValue: uuid.NewV4().String(),
		},
		EventType:     RandomEventType(),
		EventDateTime: RandomDateTime().Format(time.RFC3339),
		EventDetail:   fake.Sentence(),
		EventOutcomeInformation: []*premis.EventOutcomeInformation{
			&premis.EventOutcomeInformation{
				EventOutcome: RandomFromList(constants.OutcomeStatuses),
				EventOutcomeDetails: []*premis.EventOutcomeDetail{
					&premis.EventOutcomeDetail{EventOutcomeDetailNote: fake.Sentence()},
				},
			},
		},
		LinkingAgentIdentifiers: []*premis.LinkingAgentIdentifier{
			&premis.LinkingAgentIdentifier{
				LinkingAgentIdentifierType:  constants.IdTypeDOI,
				LinkingAgentIdentifierValue: uuid.NewV4().String(),
			},
		},
		LinkingObjectIdentifiers: []*premis.LinkingObjectIdentifier{
			&premis.LinkingObjectIdentifier{
				LinkingObjectIdentifierType:  constants.IdTypeDOI,
				LinkingObjectIdentifierValue: objId,
			},
		},
	}
}

func MakeAgent() *premis.Agent {
	return &premis.Agent{
		AgentIdentifiers: []*premis.AgentIdentifier{
			&premis.AgentIdentifier{
				AgentIdentifierType:  constants.IdTypeDOI,
				AgentIdentifierValue: uuid.NewV4().String(),
			},
		},
		AgentName: []string{fake.FullName()},
		AgentType: RandomFromList(constants.AgentTypes),
	}
}

// Creates an NSQ Message with the specified body. For our
// purposes, body is the path to a premis record.
func MakeNsqMessage(body string) *nsq.Message {
	messageId := [nsq.MsgIDLength]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'A', 'B', 'C', 'D', 'E', 'F'}
	return nsq.NewMessage(messageId, []byte(body))
}

func RandomDateTime() time.Time {
	t := time.Now().UTC()
	minutes := rand.Intn(500000) * -1
	return t.Add(time.Duration(minutes) * time.Minute)
}

func RandomAlgorithm() string {
	return RandomFromList(constants.ChecksumAlgorithms)
}

func RandomEventType() string {
	return RandomFromList(constants.EventTypes)
}

func RandomContentLocation() string {
	return fmt.Sprintf("/data/repository/%s/%s.txt", fake.Word(), fake.Word())
}

func RandomFromList(list []string) string {
	return list[rand.Intn(len(list))]
}
