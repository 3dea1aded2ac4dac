package premis_test

import (
	"bytes"
	"encoding/xml"
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/premis"
	"github.com/APTrust/livepremis/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "premis_writer_test")
	require.Nil(t, err)
	return dir
}

func TestSerialize(t *testing.T) {
	record := testutil.MakeRecord("obj-1", 1024, constants.AlgMd5, "abc123")
	buf := &bytes.Buffer{}
	require.Nil(t, premis.Serialize(record, buf))
	xml := buf.String()
	assert.True(t, strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, xml, `xmlns="info:lc/xmlns/premis-v2"`)
	assert.Contains(t, xml, `version="2.2"`)
	assert.Contains(t, xml, "<objectIdentifierValue>obj-1</objectIdentifierValue>")
	assert.Contains(t, xml, "<messageDigest>abc123</messageDigest>")
	assert.Contains(t, xml, "<size>1024</size>")

	// Schema order within objectCharacteristics
	assert.True(t, strings.Index(xml, "<fixity>") < strings.Index(xml, "<size>"))
	assert.True(t, strings.Index(xml, "<objectIdentifier>") < strings.Index(xml, "<storage>"))

	assert.NotNil(t, premis.Serialize(nil, buf))
}

func TestWriteRecordRoundTrip(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	outputPath := filepath.Join(dir, "record.xml")

	record, err := premis.OpenRecord(fixturePath("valid_record.xml"))
	require.Nil(t, err)
	originalCount := record.EventCount()

	appended := 0
	for _, outcome := range []string{"SUCCESS", "FAILURE", "NOT A STATUS"} {
		event := premis.BuildFixityEvent("fixity check", "2020-01-01T00:00:00Z",
			outcome, "checked", "agentX", "8d5e2b9c-1f6a-4c1e-9b53-0d5b6c1a7f21")
		if premis.AddEvent(record, event) {
			appended++
		}
	}
	assert.Equal(t, 2, appended)

	require.Nil(t, premis.WriteRecord(record, outputPath))

	reloaded, err := premis.OpenRecord(outputPath)
	require.Nil(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, originalCount+appended, reloaded.EventCount())
	assert.Equal(t, record.ObjectCount(), reloaded.ObjectCount())
	assert.Equal(t, "premis:file", reloaded.Objects[0].XsiType)
	assert.Equal(t, record.Events[2].IdentifierValue(), reloaded.Events[2].IdentifierValue())
	assert.Equal(t, "checked", reloaded.Events[3].OutcomeDetailNote())
	assert.Equal(t, "FAILURE", reloaded.Events[3].Outcome())

	// Agents and rights survive the trip.
	require.Equal(t, 1, len(reloaded.Agents))
	assert.Equal(t, []string{"ldr accession script"}, reloaded.Agents[0].AgentName)
	require.Equal(t, 1, len(reloaded.Other))
	assert.Equal(t, "rights", reloaded.Other[0].XMLName.Local)

	data, err := premis.ExtractIdentityData(reloaded, constants.AlgSha256)
	require.Nil(t, err)
	assert.Equal(t, "d7a8fbb307d7809469ca9abcb0082e4f8d5651e46d3cdb762d02d0bf37c9e592", data.FixityDigest)
	assert.EqualValues(t, 43, data.FileSize)
}

func TestWriteRecordOverwrites(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	outputPath := filepath.Join(dir, "record.xml")
	require.Nil(t, ioutil.WriteFile(outputPath, []byte("old contents"), 0644))

	record := testutil.MakeRecord("obj-1", 1024, constants.AlgMd5, "abc123")
	require.Nil(t, premis.WriteRecord(record, outputPath))

	reloaded, err := premis.OpenRecord(outputPath)
	require.Nil(t, err)
	assert.Equal(t, "obj-1", reloaded.Objects[0].ObjectIdentifiers[0].ObjectIdentifierValue)

	// No temp files left behind.
	files, err := ioutil.ReadDir(dir)
	require.Nil(t, err)
	assert.Equal(t, 1, len(files))
}

func TestWriteRecordFailure(t *testing.T) {
	record := testutil.MakeRecord("obj-1", 1024, constants.AlgMd5, "abc123")
	badPath := filepath.Join(os.TempDir(), "premis_no_such_dir_7f3a", "record.xml")
	err := premis.WriteRecord(record, badPath)
	require.NotNil(t, err)
	serializationErr, ok := err.(*premis.SerializationError)
	require.True(t, ok, "Expected *SerializationError, got %T", err)
	assert.Equal(t, badPath, serializationErr.Locator)
	assert.NotNil(t, serializationErr.Err)
}

const unmodelledRecord = `<?xml version="1.0" encoding="UTF-8"?>
<premis:premis xmlns:premis="info:lc/xmlns/premis-v2" xmlns:ext="http://example.org/ext" version="2.2">
  <premis:object>
    <premis:objectIdentifier>
      <premis:objectIdentifierType>DOI</premis:objectIdentifierType>
      <premis:objectIdentifierValue>obj-keep</premis:objectIdentifierValue>
    </premis:objectIdentifier>
    <premis:storage>
      <premis:contentLocation>
        <premis:contentLocationType>filepath</premis:contentLocationType>
        <premis:contentLocationValue>/data/obj-keep</premis:contentLocationValue>
      </premis:contentLocation>
      <ext:shelf>SHELF-KEEP</ext:shelf>
    </premis:storage>
    <premis:linkingIntellectualEntityIdentifier>
      <premis:linkingIntellectualEntityIdentifierType>local</premis:linkingIntellectualEntityIdentifierType>
      <premis:linkingIntellectualEntityIdentifierValue>IE-KEEP</premis:linkingIntellectualEntityIdentifierValue>
    </premis:linkingIntellectualEntityIdentifier>
    <premis:linkingRightsStatementIdentifier>
      <premis:linkingRightsStatementIdentifierType>local</premis:linkingRightsStatementIdentifierType>
      <premis:linkingRightsStatementIdentifierValue>RIGHTS-KEEP</premis:linkingRightsStatementIdentifierValue>
    </premis:linkingRightsStatementIdentifier>
  </premis:object>
  <premis:event>
    <premis:eventIdentifier>
      <premis:eventIdentifierType>DOI</premis:eventIdentifierType>
      <premis:eventIdentifierValue>event-1</premis:eventIdentifierValue>
    </premis:eventIdentifier>
    <premis:eventType>fixity check</premis:eventType>
    <premis:eventDateTime>2019-01-01T00:00:00Z</premis:eventDateTime>
    <premis:eventOutcomeInformation>
      <premis:eventOutcome>SUCCESS</premis:eventOutcome>
      <premis:eventOutcomeDetail>
        <premis:eventOutcomeDetailNote>matched</premis:eventOutcomeDetailNote>
        <premis:eventOutcomeDetailExtension>
          <ext:tool>DETAIL-EXT-KEEP</ext:tool>
        </premis:eventOutcomeDetailExtension>
      </premis:eventOutcomeDetail>
    </premis:eventOutcomeInformation>
  </premis:event>
  <premis:agent>
    <premis:agentIdentifier>
      <premis:agentIdentifierType>DOI</premis:agentIdentifierType>
      <premis:agentIdentifierValue>agent-1</premis:agentIdentifierValue>
    </premis:agentIdentifier>
    <premis:agentName>ldr accession script</premis:agentName>
    <premis:agentType>software</premis:agentType>
    <premis:agentExtension>
      <ext:build>AGENT-EXT-KEEP</ext:build>
    </premis:agentExtension>
    <premis:linkingEventIdentifier>
      <premis:linkingEventIdentifierType>DOI</premis:linkingEventIdentifierType>
      <premis:linkingEventIdentifierValue>event-1</premis:linkingEventIdentifierValue>
    </premis:linkingEventIdentifier>
  </premis:agent>
</premis:premis>
`

// extElements returns the text of every element in the ext namespace,
// keyed by local name. Elements whose prefix lost its declaration
// would not resolve to the namespace and so would not be found.
func extElements(t *testing.T, data []byte) map[string]string {
	found := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	current := ""
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Space == "http://example.org/ext" {
				current = tok.Name.Local
			}
		case xml.CharData:
			if current != "" {
				found[current] += strings.TrimSpace(string(tok))
			}
		case xml.EndElement:
			current = ""
		}
	}
	return found
}

func TestSerializeKeepsUnmodelledElements(t *testing.T) {
	record, err := premis.ParseRecord(strings.NewReader(unmodelledRecord), "unmodelled")
	require.Nil(t, err)
	event := premis.BuildFixityEvent("fixity check", "2020-01-01T00:00:00Z",
		"SUCCESS", "checked", "agentX", "obj-keep")
	require.Nil(t, premis.AppendEvent(record, event))

	buf := &bytes.Buffer{}
	require.Nil(t, premis.Serialize(record, buf))
	output := buf.Bytes()
	assert.Contains(t, string(output), `xmlns:ext="http://example.org/ext"`)
	for _, value := range []string{"IE-KEEP", "RIGHTS-KEEP", "DETAIL-EXT-KEEP", "AGENT-EXT-KEEP", "SHELF-KEEP"} {
		assert.Contains(t, string(output), value)
	}

	// Prefixes used inside verbatim content still resolve.
	ext := extElements(t, output)
	assert.Equal(t, "SHELF-KEEP", ext["shelf"])
	assert.Equal(t, "DETAIL-EXT-KEEP", ext["tool"])
	assert.Equal(t, "AGENT-EXT-KEEP", ext["build"])

	reloaded, err := premis.ParseRecord(bytes.NewReader(output), "reloaded")
	require.Nil(t, err)
	object := reloaded.Objects[0]
	require.Equal(t, 1, len(object.LinkingIntellectualEntityIdentifiers))
	assert.Contains(t, object.LinkingIntellectualEntityIdentifiers[0].InnerXML, "IE-KEEP")
	require.Equal(t, 1, len(object.LinkingRightsStatementIdentifiers))
	assert.Contains(t, object.LinkingRightsStatementIdentifiers[0].InnerXML, "RIGHTS-KEEP")
	require.Equal(t, 1, len(object.Storage[0].Other))
	assert.Equal(t, "shelf", object.Storage[0].Other[0].XMLName.Local)

	require.Equal(t, 2, reloaded.EventCount())
	detail := reloaded.Events[0].EventOutcomeInformation[0].EventOutcomeDetails[0]
	assert.Equal(t, "matched", detail.EventOutcomeDetailNote)
	require.Equal(t, 1, len(detail.EventOutcomeDetailExtensions))
	assert.Contains(t, detail.EventOutcomeDetailExtensions[0].InnerXML, "DETAIL-EXT-KEEP")

	agent := reloaded.Agents[0]
	require.Equal(t, 1, len(agent.AgentExtensions))
	assert.Contains(t, agent.AgentExtensions[0].InnerXML, "AGENT-EXT-KEEP")
	require.Equal(t, 1, len(agent.LinkingEventIdentifiers))
	assert.Equal(t, "event-1", agent.LinkingEventIdentifiers[0].LinkingEventIdentifierValue)

	// A second trip writes the same document.
	again := &bytes.Buffer{}
	require.Nil(t, premis.Serialize(reloaded, again))
	assert.Equal(t, ext, extElements(t, again.Bytes()))
	assert.Equal(t, 1, strings.Count(again.String(), `xmlns:ext=`))
}
