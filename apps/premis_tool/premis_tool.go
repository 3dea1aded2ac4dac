package main

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/fixity"
	"github.com/APTrust/livepremis/models"
	"github.com/APTrust/livepremis/network"
	"github.com/APTrust/livepremis/premis"
	"github.com/APTrust/livepremis/util"
	"github.com/APTrust/livepremis/util/logger"
	"github.com/APTrust/livepremis/util/storage"
	"github.com/op/go-logging"
	"github.com/urfave/cli"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// premis_tool works with PREMIS records from the command line:
// reading identity data, appending events, checking fixity, and
// talking to the agent registry and NSQ.
func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "premis_tool"
	app.Usage = "inspect and update PREMIS records"

	// Declare flags common to commands, and pass them in Flags below.
	confFlag := cli.StringFlag{
		Name:  "config",
		Usage: "Path to livepremis config file",
	}
	algFlag := cli.StringFlag{
		Name:  "alg",
		Usage: "Digest algorithm: md5, sha1, sha256 or sha512",
		Value: constants.AlgMd5,
	}
	verboseFlag := cli.BoolFlag{
		Name:  "verbose",
		Usage: "Log debug messages to stderr",
	}

	app.Commands = []cli.Command{
		{
			Name:      "extract",
			Usage:     "Print a record's identity and fixity data as JSON",
			ArgsUsage: "<record>",
			Flags:     []cli.Flag{algFlag},
			Action:    extract,
		},
		{
			Name:      "add-event",
			Usage:     "Append a fixity check event to a record",
			ArgsUsage: "<record>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "outcome", Usage: "SUCCESS or FAILURE", Value: constants.OutcomeSuccess},
				cli.StringFlag{Name: "message", Usage: "Outcome detail note"},
				cli.StringFlag{Name: "agent", Usage: "Name of the agent that ran the check"},
				cli.StringFlag{Name: "agent-id", Usage: "Registry identifier of the agent"},
				cli.StringFlag{Name: "date", Usage: "Event date/time, ISO 8601. Defaults to now."},
			},
			Action: addEvent,
		},
		{
			Name:      "fixity",
			Usage:     "Check the fixity of a record's content",
			ArgsUsage: "<record>",
			Flags: []cli.Flag{
				algFlag, confFlag, verboseFlag,
				cli.StringFlag{Name: "content-root", Usage: "Directory relative content locations are under"},
				cli.BoolFlag{Name: "save", Usage: "Append the outcome to the record as a fixity check event"},
			},
			Action: checkFixity,
		},
		{
			Name:      "agent-search",
			Usage:     "Search the agent registry",
			ArgsUsage: "<term>",
			Flags:     []cli.Flag{confFlag, verboseFlag},
			Action:    agentSearch,
		},
		{
			Name:      "agent-create",
			Usage:     "Register an agent, unless one by that name exists",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				confFlag, verboseFlag,
				cli.StringFlag{Name: "type", Usage: "person, organization or software", Value: constants.AgentTypeSoftware},
			},
			Action: agentCreate,
		},
		{
			Name:  "agent-events-url",
			Usage: "Print the events URL of an agent, given its identifier or name",
			Flags: []cli.Flag{
				confFlag, verboseFlag,
				cli.StringFlag{Name: "id", Usage: "Agent identifier"},
				cli.StringFlag{Name: "name", Usage: "Agent name"},
			},
			Action: agentEventsURL,
		},
		{
			Name:      "enqueue",
			Usage:     "Queue records for the fixity checker",
			ArgsUsage: "<record> [<record>...]",
			Flags: []cli.Flag{
				confFlag,
				cli.StringFlag{Name: "topic", Usage: "NSQ topic. Defaults to the fixity worker's topic."},
			},
			Action: enqueue,
		},
	}

	// There is no "default" command. Print help and exit.
	app.Action = func(clictx *cli.Context) error {
		return cli.ShowAppHelp(clictx)
	}
	return app
}

func extract(clictx *cli.Context) error {
	recordPath, err := requireArg(clictx, "record")
	if err != nil {
		return err
	}
	identity, err := premis.ExtractIdentityDataFromFile(recordPath, clictx.String("alg"))
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(clictx.App.Writer, string(data))
	return nil
}

func addEvent(clictx *cli.Context) error {
	recordPath, err := requireArg(clictx, "record")
	if err != nil {
		return err
	}
	record, err := premis.OpenRecord(recordPath)
	if err != nil {
		return err
	}
	objId, err := premis.FindObjectId(record.Objects[0])
	if err != nil {
		return err
	}
	eventDateTime := clictx.String("date")
	if eventDateTime == "" {
		eventDateTime = time.Now().UTC().Format(time.RFC3339)
	}
	event := premis.BuildFixityEvent(
		constants.EventFixityCheck,
		eventDateTime,
		strings.ToUpper(clictx.String("outcome")),
		clictx.String("message"),
		clictx.String("agent"),
		objId)
	if agentId := clictx.String("agent-id"); agentId != "" {
		premis.LinkAgent(event, agentId)
	}
	if err = premis.AppendEvent(record, event); err != nil {
		return err
	}
	if err = premis.WriteRecord(record, recordPath); err != nil {
		return err
	}
	fmt.Fprintln(clictx.App.Writer, event.IdentifierValue())
	return nil
}

// checkFixity exits with status 2 if the check fails, so scripts
// can tell a bad digest from a bad command line.
func checkFixity(clictx *cli.Context) error {
	recordPath, err := requireArg(clictx, "record")
	if err != nil {
		return err
	}
	algorithm := clictx.String("alg")
	identity, err := premis.ExtractIdentityDataFromFile(recordPath, algorithm)
	if err != nil {
		return err
	}
	if !identity.HasFixity {
		return fmt.Errorf("Record for object %s has no %s digest", identity.ObjectId, algorithm)
	}

	config := &models.Config{ContentRoot: clictx.String("content-root")}
	opener := fixity.NewOpener(nil)
	if clictx.String("config") != "" {
		config, err = models.LoadConfigFile(clictx.String("config"))
		if err != nil {
			return err
		}
		config.ExpandFilePaths()
		if root := clictx.String("content-root"); root != "" {
			config.ContentRoot = root
		}
		reader, err := network.NewS3Reader(config.S3Endpoint,
			config.GetAWSAccessKeyId(), config.GetAWSSecretAccessKey(), "", true)
		if err != nil {
			toolLogger(clictx).Warningf("S3 content cannot be checked: %v", err)
		} else {
			opener = fixity.NewOpener(reader)
		}
	}

	result := models.NewFixityCheckResult(nil, algorithm)
	result.RecordPath = recordPath
	result.IdentityData = identity
	result.ContentPath = config.ContentPath(identity.ContentLocation)
	digest, err := fixity.CalculateDigest(opener, result.ContentPath, algorithm)
	switch err.(type) {
	case nil:
		result.CalculatedDigest = digest.Value
		result.CalculatedSize = digest.Size
	case *fixity.ContentMissingError, *network.S3ObjectMissingError:
		result.ContentMissing = true
	default:
		return err
	}
	fmt.Fprintf(clictx.App.Writer, "%s %s: %s\n", result.Outcome(), identity.ObjectId, result.OutcomeMessage())

	if clictx.Bool("save") {
		event := premis.BuildFixityEvent(constants.EventFixityCheck,
			time.Now().UTC().Format(time.RFC3339),
			result.Outcome(), result.OutcomeMessage(),
			config.DefaultAgentName, identity.ObjectId)
		if config.AgentRegistryURL != "" && config.DefaultAgentName != "" {
			client, err := newRegistryClient(clictx, config)
			if err != nil {
				return err
			}
			agent, err := client.FindOrCreateAgent(config.DefaultAgentName, config.DefaultAgentType)
			if err != nil {
				return err
			}
			premis.LinkAgent(event, agent.Identifier)
		}
		if err = premis.AppendEvent(identity.Record, event); err != nil {
			return err
		}
		if err = premis.WriteRecord(identity.Record, recordPath); err != nil {
			return err
		}
	}
	if result.Outcome() != constants.OutcomeSuccess {
		return cli.NewExitError("fixity check failed", 2)
	}
	return nil
}

func agentSearch(clictx *cli.Context) error {
	term, err := requireArg(clictx, "term")
	if err != nil {
		return err
	}
	client, _, err := registryClient(clictx)
	if err != nil {
		return err
	}
	resp := client.AgentSearch(term)
	if resp.Error != nil {
		return resp.Error
	}
	return printAgents(clictx, resp.Agents())
}

func agentCreate(clictx *cli.Context) error {
	name, err := requireArg(clictx, "name")
	if err != nil {
		return err
	}
	agentType := clictx.String("type")
	if !util.StringListContains(constants.AgentTypes, agentType) {
		return fmt.Errorf("Agent type '%s' is not one of %v", agentType, constants.AgentTypes)
	}
	client, _, err := registryClient(clictx)
	if err != nil {
		return err
	}
	resp := client.AgentCreate(name, agentType)
	if resp.Error != nil {
		return resp.Error
	}
	if !resp.Created {
		fmt.Fprintf(clictx.App.Writer, "Not created. Agents matching '%s' already exist:\n", name)
	}
	return printAgents(clictx, resp.Agents())
}

func agentEventsURL(clictx *cli.Context) error {
	client, config, err := registryClient(clictx)
	if err != nil {
		return err
	}
	if config.AgentCacheFile != "" {
		config.ExpandFilePaths()
		cache, err := storage.NewAgentCache(config.AgentCacheFile)
		if err != nil {
			toolLogger(clictx).Warningf("Agent cache disabled: %v", err)
		} else {
			defer cache.Close()
			client.WithCache(cache)
		}
	}
	eventsUrl, err := client.ResolveAgentEventsURL(clictx.String("id"), clictx.String("name"))
	if err != nil {
		return err
	}
	fmt.Fprintln(clictx.App.Writer, eventsUrl)
	return nil
}

func enqueue(clictx *cli.Context) error {
	if clictx.NArg() == 0 {
		return fmt.Errorf("At least one record path is required")
	}
	config, err := loadConfig(clictx)
	if err != nil {
		return err
	}
	topic := clictx.String("topic")
	if topic == "" {
		topic = config.FixityWorker.NsqTopic
	}
	// The worker may not share our working directory.
	recordPaths := make([]string, clictx.NArg())
	for i, recordPath := range clictx.Args() {
		if recordPaths[i], err = filepath.Abs(recordPath); err != nil {
			return err
		}
	}
	client := network.NewNSQClient(config.NsqdHttpAddress)
	count, err := client.EnqueueAll(topic, recordPaths)
	fmt.Fprintf(clictx.App.Writer, "Queued %d of %d records to %s\n", count, clictx.NArg(), topic)
	return err
}

func requireArg(clictx *cli.Context, name string) (string, error) {
	arg := util.CleanString(clictx.Args().First())
	if arg == "" {
		return "", fmt.Errorf("Missing required argument <%s>", name)
	}
	return arg, nil
}

func loadConfig(clictx *cli.Context) (*models.Config, error) {
	pathToConfigFile := util.CleanString(clictx.String("config"))
	if pathToConfigFile == "" {
		return nil, fmt.Errorf("Param --config is required")
	}
	return models.LoadConfigFile(pathToConfigFile)
}

func toolLogger(clictx *cli.Context) *logging.Logger {
	level := logging.WARNING
	if clictx.Bool("verbose") {
		level = logging.DEBUG
	}
	return logger.StderrLogger("premis_tool", level)
}

func registryClient(clictx *cli.Context) (*network.AgentRegistryClient, *models.Config, error) {
	config, err := loadConfig(clictx)
	if err != nil {
		return nil, nil, err
	}
	client, err := newRegistryClient(clictx, config)
	return client, config, err
}

func newRegistryClient(clictx *cli.Context, config *models.Config) (*network.AgentRegistryClient, error) {
	return network.NewAgentRegistryClient(
		config.AgentRegistryURL,
		config.AgentRegistryAPIRoot,
		config.GetAgentRegistryAPIKey(),
		toolLogger(clictx))
}

func printAgents(clictx *cli.Context, agents []*models.RegistryAgent) error {
	data, err := json.MarshalIndent(agents, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(clictx.App.Writer, string(data))
	return nil
}
