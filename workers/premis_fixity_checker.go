package workers

import (
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/context"
	"github.com/APTrust/livepremis/fixity"
	"github.com/APTrust/livepremis/models"
	"github.com/APTrust/livepremis/network"
	"github.com/APTrust/livepremis/premis"
	"github.com/nsqio/go-nsq"
	"sync"
	"time"
)

// PremisFixityChecker checks the fixity of the content behind PREMIS
// records and appends the outcome to each record as a fixity check
// event. Each NSQ message body is the path to one record.
type PremisFixityChecker struct {
	Context            *context.Context
	CheckChannel       chan *models.FixityCheckResult
	RecordChannel      chan *models.FixityCheckResult
	PostProcessChannel chan *models.FixityCheckResult
	RecordsInProcess   *models.RecordsInProcess
	agentId            string
	agentMutex         sync.Mutex
}

func NewPremisFixityChecker(_context *context.Context) *PremisFixityChecker {
	checker := &PremisFixityChecker{
		Context:          _context,
		RecordsInProcess: models.NewRecordsInProcess(),
	}
	workerConfig := _context.Config.FixityWorker
	workerBufferSize := workerConfig.Workers * 10
	checker.CheckChannel = make(chan *models.FixityCheckResult, workerBufferSize)
	checker.RecordChannel = make(chan *models.FixityCheckResult, workerBufferSize)
	checker.PostProcessChannel = make(chan *models.FixityCheckResult, workerBufferSize)
	// Checking reads whole files, possibly over the network.
	for i := 0; i < workerConfig.NetworkConnections; i++ {
		go checker.check()
	}
	for i := 0; i < workerConfig.Workers; i++ {
		go checker.record()
		go checker.postProcess()
	}
	return checker
}

func (checker *PremisFixityChecker) HandleMessage(message *nsq.Message) error {
	result := models.NewFixityCheckResult(message, checker.Context.Config.FixityAlgorithm)
	if result.RecordPath == "" {
		checker.Context.MessageLog.Errorf("Message %s has no record path. Discarding it.",
			string(message.ID[:]))
		message.Finish()
		return nil
	}
	// Two workers appending to the same record would clobber each other.
	if !checker.RecordsInProcess.Add(result.RecordPath) {
		checker.Context.MessageLog.Infof("Skipping %s: already in process as of %s.",
			result.RecordPath,
			checker.RecordsInProcess.StartedAt(result.RecordPath).Format(time.RFC3339))
		message.Finish()
		return nil
	}
	checker.Context.MessageLog.Infof("Added %s to records in process", result.RecordPath)

	// We'll ping NSQ manually when we need to.
	message.DisableAutoResponse()
	checker.CheckChannel <- result
	return nil
}

func (checker *PremisFixityChecker) check() {
	for result := range checker.CheckChannel {
		result.CheckSummary.Start()
		checker.checkFixity(result)
		result.CheckSummary.Finish()
		if result.CheckSummary.HasErrors() {
			checker.PostProcessChannel <- result
		} else {
			checker.RecordChannel <- result
		}
	}
}

func (checker *PremisFixityChecker) record() {
	for result := range checker.RecordChannel {
		result.RecordSummary.Start()
		checker.recordOutcome(result)
		result.RecordSummary.Finish()
		checker.PostProcessChannel <- result
	}
}

func (checker *PremisFixityChecker) postProcess() {
	for result := range checker.PostProcessChannel {
		// Counters and the in-process list are settled before we
		// answer NSQ.
		if result.HasErrors() {
			checker.Context.IncrementFailed()
		} else {
			checker.Context.IncrementSucceeded()
		}
		checker.RecordsInProcess.Delete(result.RecordPath)
		checker.Context.MessageLog.Infof("Removed %s from records in process", result.RecordPath)

		if result.HasErrors() {
			if result.ErrorIsFatal() {
				checker.Context.MessageLog.Errorf("%s: %s (FATAL)",
					result.RecordPath, result.AllErrorsAsString())
				result.NSQMessage.Finish()
			} else {
				checker.Context.MessageLog.Errorf("%s: %s (transient)",
					result.RecordPath, result.AllErrorsAsString())
				result.NSQMessage.Requeue(1 * time.Minute)
			}
			continue
		}
		if result.Outcome() == constants.OutcomeSuccess {
			checker.Context.MessageLog.Infof("Fixity check complete for %s. %s. Event %s.",
				result.RecordPath, result.OutcomeMessage(), result.EventIdentifier)
		} else {
			checker.Context.MessageLog.Warningf("Fixity check complete for %s. FIXITY FAILED: %s. Event %s.",
				result.RecordPath, result.OutcomeMessage(), result.EventIdentifier)
		}
		result.NSQMessage.Finish()
	}
}

// checkFixity loads the record and calculates the digest of the
// content it points to. Missing content is not an error here: it's
// a failed check, and recordOutcome says so in the record.
func (checker *PremisFixityChecker) checkFixity(result *models.FixityCheckResult) {
	summary := result.CheckSummary
	identity, err := premis.ExtractIdentityDataFromFile(result.RecordPath, result.Algorithm)
	if err != nil {
		summary.AddError("Cannot read identity data: %v", err)
		summary.ErrorIsFatal = premis.IsFatal(err)
		return
	}
	result.IdentityData = identity
	if !identity.HasFixity {
		summary.AddError("Record for object %s has no %s digest", identity.ObjectId, result.Algorithm)
		summary.ErrorIsFatal = true
		return
	}
	result.ContentPath = checker.Context.Config.ContentPath(identity.ContentLocation)
	digest, err := fixity.CalculateDigest(checker.Context.ContentOpener, result.ContentPath, result.Algorithm)
	if err != nil {
		switch err.(type) {
		case *fixity.ContentMissingError, *network.S3ObjectMissingError:
			checker.Context.MessageLog.Warningf("Content for %s is missing: %v", identity.ObjectId, err)
			result.ContentMissing = true
		default:
			summary.AddError("Cannot calculate %s digest of %s: %v", result.Algorithm, result.ContentPath, err)
		}
		return
	}
	result.CalculatedDigest = digest.Value
	result.CalculatedSize = digest.Size
}

// recordOutcome appends a fixity check event to the record and
// writes the record back to where we read it.
func (checker *PremisFixityChecker) recordOutcome(result *models.FixityCheckResult) {
	summary := result.RecordSummary
	config := checker.Context.Config
	agentId, err := checker.resolveAgent()
	if err != nil {
		summary.AddError("Cannot resolve agent '%s': %v", config.DefaultAgentName, err)
		return
	}
	event := premis.BuildFixityEvent(
		constants.EventFixityCheck,
		time.Now().UTC().Format(time.RFC3339),
		result.Outcome(),
		result.OutcomeMessage(),
		config.DefaultAgentName,
		result.ObjectId())
	if agentId != "" {
		premis.LinkAgent(event, agentId)
	}
	record := result.IdentityData.Record
	if err = premis.AppendEvent(record, event); err != nil {
		summary.AddError("%v", err)
		summary.ErrorIsFatal = true
		return
	}
	if err = premis.WriteRecord(record, result.RecordPath); err != nil {
		summary.AddError("%v", err)
		return
	}
	result.EventIdentifier = event.IdentifierValue()
	result.AgentIdentifier = event.LinkingAgentIdentifiers[0].LinkingAgentIdentifierValue
}

// resolveAgent returns the registry identifier of the configured
// agent, registering the agent if the registry has never heard of
// it. It returns an empty string if there is no registry or no
// agent name, in which case events keep their generated agent id.
func (checker *PremisFixityChecker) resolveAgent() (string, error) {
	config := checker.Context.Config
	registry := checker.Context.AgentRegistry
	if registry == nil || config.DefaultAgentName == "" {
		return "", nil
	}
	checker.agentMutex.Lock()
	defer checker.agentMutex.Unlock()
	if checker.agentId != "" {
		return checker.agentId, nil
	}
	agent, err := registry.FindOrCreateAgent(config.DefaultAgentName, config.DefaultAgentType)
	if err != nil {
		return "", err
	}
	checker.agentId = agent.Identifier
	return checker.agentId, nil
}
