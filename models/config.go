package models

import (
	"encoding/json"
	"flag"
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/util"
	"github.com/APTrust/livepremis/util/fileutil"
	"github.com/op/go-logging"
	"os"
	"path/filepath"
)

type WorkerConfig struct {
	// This describes how often the NSQ client should ping
	// the NSQ server to let it know it's still there. The
	// setting must be formatted like so:
	//
	// "800ms" for 800 milliseconds
	// "10s" for ten seconds
	// "1m" for one minute
	HeartbeatInterval string

	// The maximum number of times the worker should try to
	// process a record. Transient errors, such as a registry
	// timeout, cause the record to be requeued this number
	// of times. Fatal errors, such as invalid PREMIS XML, are
	// not retried.
	MaxAttempts uint16

	// Maximum number of records a worker will accept from the
	// queue at one time.
	MaxInFlight int

	// If the NSQ server does not hear from a client that a
	// job is complete in this amount of time, the server
	// considers the job to have timed out and re-queues it.
	// Fixity checks on large files in S3 may need "60m" or so.
	MessageTimeout string

	// Number of go routines used to read content and
	// calculate digests.
	NetworkConnections int

	// The name of the NSQ Channel the worker should read from.
	NsqChannel string

	// The name of the NSQ Topic the worker should listen to.
	NsqTopic string

	// This describes how long the NSQ client will wait for
	// a read from the NSQ server before timing out. The format
	// is the same as for HeartbeatInterval.
	ReadTimeout string

	// Number of go routines that record events and write
	// PREMIS records back to disk.
	Workers int

	// This describes how long the NSQ client will wait for
	// a write to the NSQ server to complete before timing out.
	// The format is the same as for HeartbeatInterval.
	WriteTimeout string
}

type Config struct {
	// ActiveConfig is the path to the configuration file
	// currently in use.
	ActiveConfig string

	// AgentCacheFile is the path to the bolt DB file that caches
	// agent name lookups. Leave empty to query the registry
	// every time.
	AgentCacheFile string

	// AgentRegistryAPIRoot is the path prefix of the agent
	// registry API, e.g. "/ldragents".
	AgentRegistryAPIRoot string

	// AgentRegistryURL is the scheme and host of the agent
	// registry, e.g. "https://y2.lib.uchicago.edu". No trailing
	// slash.
	AgentRegistryURL string

	// ContentRoot is prepended to relative contentLocationValue
	// paths found in PREMIS records. Absolute paths and S3 URLs
	// are used as-is.
	ContentRoot string

	// DefaultAgentName is the name of the agent credited with
	// fixity checks run by premis_fixity_check.
	DefaultAgentName string

	// DefaultAgentType is the agent type used when
	// DefaultAgentName has to be created in the registry.
	// See constants.AgentTypes.
	DefaultAgentType string

	// FixityAlgorithm is the digest algorithm the fixity checker
	// looks for in each record's objectCharacteristics.
	FixityAlgorithm string

	// Configuration options for premis_fixity_check.
	FixityWorker WorkerConfig

	// LogDirectory is where we'll write our log files.
	LogDirectory string

	// LogLevel is defined in github.com/op/go-logging
	// and should be one of the following:
	// 0 - CRITICAL
	// 1 - ERROR
	// 2 - WARNING
	// 3 - NOTICE
	// 4 - INFO
	// 5 - DEBUG
	LogLevel logging.Level

	// If true, processes will log to STDERR in addition
	// to their standard log files. You really only want
	// to do this in development.
	LogToStderr bool

	// MaxDaysSinceFixityCheck is how often each record should get
	// a fixity check. premis_queue_fixity queues records whose last
	// fixity check is older than this.
	MaxDaysSinceFixityCheck int

	// The URL of the local nsqd's HTTP endpoint, usually
	// http://localhost:4151. We post records to this address
	// when queueing them for fixity checks.
	NsqdHttpAddress string

	// The address of the NSQ lookup daemon, which workers
	// use to find nsqd instances. Usually port 4161.
	NsqLookupd string

	// RecordRoot is the directory tree premis_queue_fixity walks
	// looking for PREMIS records.
	RecordRoot string

	// S3Endpoint is the host (without protocol) of the S3
	// service holding content referenced by S3 content
	// locations, usually s3.amazonaws.com.
	S3Endpoint string
}

// Loads a JSON config file and returns the config object.
// Param pathToConfigFile may be absolute or relative to
// LIVEPREMIS_HOME.
func LoadConfigFile(pathToConfigFile string) (*Config, error) {
	file, err := fileutil.LoadRelativeFile(pathToConfigFile)
	if err != nil {
		detailedError := fmt.Errorf("Error reading config file '%s': %v\n",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config := &Config{}
	err = json.Unmarshal(file, config)
	if err != nil {
		detailedError := fmt.Errorf("Error parsing JSON from config file '%s': %v",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config.ActiveConfig = pathToConfigFile
	config.setDefaults()
	return config, nil
}

func (config *Config) setDefaults() {
	if config.FixityAlgorithm == "" {
		config.FixityAlgorithm = constants.AlgMd5
	}
	if config.DefaultAgentType == "" {
		config.DefaultAgentType = constants.AgentTypeSoftware
	}
	if config.S3Endpoint == "" {
		config.S3Endpoint = "s3.amazonaws.com"
	}
	if config.FixityWorker.NsqTopic == "" {
		config.FixityWorker.NsqTopic = constants.FixityTopic
	}
	if config.MaxDaysSinceFixityCheck < 1 {
		config.MaxDaysSinceFixityCheck = 90
	}
	if config.FixityWorker.Workers < 1 {
		config.FixityWorker.Workers = 1
	}
	if config.FixityWorker.NetworkConnections < 1 {
		config.FixityWorker.NetworkConnections = 1
	}
}

// Returns the absolute path the logging directory, creating the
// directory if necessary.
func (config *Config) EnsureLogDirectory() (string, error) {
	config.ExpandFilePaths()
	err := config.createDirectories()
	if err != nil {
		return "", err
	}
	return config.AbsLogDirectory(), nil
}

func (config *Config) AbsLogDirectory() string {
	absLogDir, err := filepath.Abs(config.LogDirectory)
	if err != nil {
		msg := fmt.Sprintf("Cannot get absolute path to log directory. "+
			"config.LogDirectory is set to '%s'", config.LogDirectory)
		panic(msg)
	}
	return absLogDir
}

// EnsureAgentRegistryConfig returns an error if the settings we need
// to talk to the agent registry are missing.
func (config *Config) EnsureAgentRegistryConfig() error {
	if config.AgentRegistryURL == "" {
		return fmt.Errorf("AgentRegistryURL is missing from config file")
	}
	if config.GetAgentRegistryAPIKey() == "" {
		return fmt.Errorf("Environment variable AGENT_REGISTRY_API_KEY is not set")
	}
	return nil
}

// Validate checks the settings that have no sensible default.
func (config *Config) Validate() error {
	if !util.StringListContains(constants.ChecksumAlgorithms, config.FixityAlgorithm) {
		return fmt.Errorf("FixityAlgorithm '%s' is not one of %v",
			config.FixityAlgorithm, constants.ChecksumAlgorithms)
	}
	if !util.StringListContains(constants.AgentTypes, config.DefaultAgentType) {
		return fmt.Errorf("DefaultAgentType '%s' is not one of %v",
			config.DefaultAgentType, constants.AgentTypes)
	}
	return nil
}

// Expands ~ file paths.
func (config *Config) ExpandFilePaths() {
	expanded, err := fileutil.ExpandTilde(config.LogDirectory)
	if err == nil {
		config.LogDirectory = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.AgentCacheFile)
	if err == nil {
		config.AgentCacheFile = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.ContentRoot)
	if err == nil {
		config.ContentRoot = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.RecordRoot)
	if err == nil {
		config.RecordRoot = expanded
	}
}

func (config *Config) createDirectories() error {
	if config.LogDirectory == "" {
		return fmt.Errorf("You must define config.LogDirectory")
	}
	if !fileutil.FileExists(config.LogDirectory) {
		err := os.MkdirAll(config.LogDirectory, 0755)
		if err != nil {
			return err
		}
	}
	if config.AgentCacheFile != "" {
		cacheDir := filepath.Dir(config.AgentCacheFile)
		if !fileutil.FileExists(cacheDir) {
			err := os.MkdirAll(cacheDir, 0755)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ContentPath returns the path or URL at which we can read the bytes
// behind a PREMIS contentLocationValue.
func (config *Config) ContentPath(contentLocation string) string {
	if util.IsS3Location(contentLocation) || filepath.IsAbs(contentLocation) ||
		config.ContentRoot == "" {
		return contentLocation
	}
	return filepath.Join(config.ContentRoot, contentLocation)
}

// TestsAreRunning returns true if we're running unit or integration
// tests; false otherwise.
func (config *Config) TestsAreRunning() bool {
	return flag.Lookup("test.v") != nil
}

// GetAgentRegistryAPIKey returns the registry API key from the
// environment, or an empty string if it isn't set.
func (config *Config) GetAgentRegistryAPIKey() string {
	return os.Getenv("AGENT_REGISTRY_API_KEY")
}

// GetAWSAccessKeyId returns the AWS Access Key ID from the environment,
// or an empty string if the ENV var isn't set. In test context, this
// returns a dummy key id.
func (config *Config) GetAWSAccessKeyId() string {
	keyId := os.Getenv("AWS_ACCESS_KEY_ID")
	if keyId == "" && config.TestsAreRunning() {
		keyId = "TestKeyId"
	}
	return keyId
}

// GetAWSSecretAccessKey returns the AWS Secret Access Key
// from the environment, or an empty string if the ENV var isn't set.
// In test context, this returns a dummy key.
func (config *Config) GetAWSSecretAccessKey() string {
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if secretKey == "" && config.TestsAreRunning() {
		secretKey = "TestSecretKey"
	}
	return secretKey
}
