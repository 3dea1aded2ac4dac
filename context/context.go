package context

import (
	"fmt"
	"github.com/APTrust/livepremis/fixity"
	"github.com/APTrust/livepremis/models"
	"github.com/APTrust/livepremis/network"
	"github.com/APTrust/livepremis/util/logger"
	"github.com/APTrust/livepremis/util/storage"
	"github.com/op/go-logging"
	"os"
	"sync/atomic"
)

/*
Context sets up the items common to the premis services and tools:
logging, the NSQ client, the agent registry client (with its bolt
cache) and the content opener that reads local and S3 content.

This object is meant to be used as a singleton within each process.
*/
type Context struct {
	Config        *models.Config
	MessageLog    *logging.Logger
	NSQClient     *network.NSQClient
	AgentRegistry *network.AgentRegistryClient
	AgentCache    *storage.AgentCache
	S3Reader      *network.S3Reader
	ContentOpener fixity.ContentOpener
	pathToLogFile string
	succeeded     int64
	failed        int64
}

/*
Creates and returns a new Context object. Because some items are
absolutely required by the processes that use it, this method will
exit if it cannot set up essential services, such as logging or the
agent registry client.
*/
func NewContext(config *models.Config) (context *Context) {
	context = &Context{
		succeeded: int64(0),
		failed:    int64(0),
	}
	context.Config = config
	context.MessageLog, context.pathToLogFile = logger.InitLogger(config)
	context.NSQClient = network.NewNSQClient(config.NsqdHttpAddress)
	context.initAgentRegistry()
	context.initContentOpener()
	return context
}

// Initializes the agent registry client, with a cache if the config
// names a cache file.
func (context *Context) initAgentRegistry() {
	client, err := network.NewAgentRegistryClient(
		context.Config.AgentRegistryURL,
		context.Config.AgentRegistryAPIRoot,
		context.Config.GetAgentRegistryAPIKey(),
		context.MessageLog)
	if err != nil {
		message := fmt.Sprintf("Exiting. Cannot initialize agent registry client: %v", err)
		fmt.Fprintln(os.Stderr, message)
		context.MessageLog.Fatal(message)
	}
	context.AgentRegistry = client
	if context.Config.AgentCacheFile == "" {
		return
	}
	cache, err := storage.NewAgentCache(context.Config.AgentCacheFile)
	if err != nil {
		// The registry still works without the cache, only slower.
		context.MessageLog.Warningf("Agent cache disabled: %v", err)
		return
	}
	context.AgentCache = cache
	client.WithCache(cache)
}

// Initializes the S3 reader and the content opener. Without an S3
// endpoint, only local content can be checked.
func (context *Context) initContentOpener() {
	if context.Config.S3Endpoint == "" {
		context.ContentOpener = fixity.NewOpener(nil)
		return
	}
	reader, err := network.NewS3Reader(
		context.Config.S3Endpoint,
		context.Config.GetAWSAccessKeyId(),
		context.Config.GetAWSSecretAccessKey(),
		"", true)
	if err != nil {
		context.MessageLog.Warningf("S3 content cannot be checked: %v", err)
		context.ContentOpener = fixity.NewOpener(nil)
		return
	}
	context.S3Reader = reader
	context.ContentOpener = fixity.NewOpener(reader)
}

// Close releases the agent cache.
func (context *Context) Close() {
	if context.AgentCache != nil {
		context.AgentCache.Close()
		context.AgentCache = nil
	}
}

// Returns the number of records that succeeded.
func (context *Context) Succeeded() int64 {
	return atomic.LoadInt64(&context.succeeded)
}

// Returns the number of records that failed.
func (context *Context) Failed() int64 {
	return atomic.LoadInt64(&context.failed)
}

// Increases the count of successfully processed records by one.
func (context *Context) IncrementSucceeded() int64 {
	return atomic.AddInt64(&context.succeeded, 1)
}

// Increases the count of unsuccessfully processed records by one.
func (context *Context) IncrementFailed() int64 {
	return atomic.AddInt64(&context.failed, 1)
}

// Returns the path to this process' log file
func (context *Context) PathToLogFile() string {
	return context.pathToLogFile
}

// Logs info about the number of records that have succeeded and failed.
func (context *Context) LogStats() {
	context.MessageLog.Infof("**STATS** Succeeded: %d, Failed: %d",
		context.Succeeded(), context.Failed())
}
