package main

import (
	"flag"
	"fmt"
	"github.com/APTrust/livepremis/context"
	"github.com/APTrust/livepremis/models"
	"github.com/APTrust/livepremis/workers"
	"os"
)

// premis_fixity_check is a service that checks the fixity of the
// content behind PREMIS records, and records each check in the
// record as a fixity check event.
func main() {
	pathToConfigFile := parseCommandLine()
	config, err := models.LoadConfigFile(pathToConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if err = config.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context := context.NewContext(config)
	defer _context.Close()
	_context.MessageLog.Infof("Connecting to NSQLookupd at %s", _context.Config.NsqLookupd)
	_context.MessageLog.Infof("NSQDHttpAddress is %s", _context.Config.NsqdHttpAddress)
	consumer, err := workers.CreateNsqConsumer(&_context.Config.FixityWorker)
	if err != nil {
		_context.MessageLog.Fatalf(err.Error())
	}
	_context.MessageLog.Infof("premis_fixity_check started. Checking %s digests.",
		_context.Config.FixityAlgorithm)

	worker := workers.NewPremisFixityChecker(_context)
	consumer.AddHandler(worker)
	consumer.ConnectToNSQLookupd(_context.Config.NsqLookupd)

	// This reader blocks until we get an interrupt, so our program does not exit.
	<-consumer.StopChan
	_context.LogStats()
}

func parseCommandLine() (configFile string) {
	var pathToConfigFile string
	flag.StringVar(&pathToConfigFile, "config", "", "Path to livepremis config file")
	flag.Parse()
	if pathToConfigFile == "" {
		printUsage()
		os.Exit(1)
	}
	return pathToConfigFile
}

// Tell the user about the program.
func printUsage() {
	message := `
premis_fixity_check reads PREMIS record paths from NSQ, checks the
fixity of the content each record points to, and appends a fixity
check event to the record.

Usage: premis_fixity_check -config=<path to livepremis config file>

Param -config is required.
`
	fmt.Println(message)
}
