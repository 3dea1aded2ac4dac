package main

import (
	"flag"
	"fmt"
	"github.com/APTrust/livepremis/context"
	"github.com/APTrust/livepremis/models"
	"github.com/APTrust/livepremis/workers"
	"os"
)

func main() {
	pathToConfigFile, pathLike, maxRecords := parseCommandLine()
	config, err := models.LoadConfigFile(pathToConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context := context.NewContext(config)
	defer _context.Close()
	queue := workers.NewPremisQueueFixity(_context, pathLike, maxRecords)
	if _, err = queue.Run(); err != nil {
		_context.MessageLog.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseCommandLine() (configFile string, pathLike string, maxRecords int) {
	flag.StringVar(&configFile, "config", "", "Path to livepremis config file")
	flag.StringVar(&pathLike, "like", "", "Queue only records that have this string in their path")
	flag.IntVar(&maxRecords, "maxrecords", 100, "Maximum number of records to queue")
	flag.Parse()
	if configFile == "" {
		printUsage()
		os.Exit(1)
	}
	return configFile, pathLike, maxRecords
}

func printUsage() {
	message := `
premis_queue_fixity: Adds PREMIS records in need of a fixity check
to NSQ's fixity check topic.

Usage: premis_queue_fixity -config=<path to livepremis config file> -like=<string> -maxrecords=<integer>

Param -config is required.

Param -like is optional. If specified, this will only queue records
whose path contains the specified string. E.g. -like=/mvol/0004/
will only queue records under an mvol/0004 directory.

Param -maxrecords is optional. If specified, no more than maxrecords
will be added to NSQ for fixity checking. If not specified, defaults
to 100.

Records are found by walking the config's RecordRoot. A record needs
a check if its latest fixity check event is older than the config's
MaxDaysSinceFixityCheck, or if it has none.
`
	fmt.Println(message)
}
