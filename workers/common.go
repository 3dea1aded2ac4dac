package workers

import (
	"fmt"
	"github.com/APTrust/livepremis/models"
	"github.com/nsqio/go-nsq"
)

// CreateNsqConsumer returns a consumer for the worker's topic and
// channel. Settings left empty in workerConfig keep go-nsq's
// defaults. The consumer does not connect until told to.
func CreateNsqConsumer(workerConfig *models.WorkerConfig) (*nsq.Consumer, error) {
	if workerConfig.NsqTopic == "" || workerConfig.NsqChannel == "" {
		return nil, fmt.Errorf("Worker config needs both NsqTopic and NsqChannel")
	}
	settings := make(map[string]interface{})
	if workerConfig.MaxInFlight > 0 {
		settings["max_in_flight"] = workerConfig.MaxInFlight
	}
	if workerConfig.MaxAttempts > 0 {
		settings["max_attempts"] = workerConfig.MaxAttempts
	}
	durations := map[string]string{
		"heartbeat_interval": workerConfig.HeartbeatInterval,
		"read_timeout":       workerConfig.ReadTimeout,
		"write_timeout":      workerConfig.WriteTimeout,
		"msg_timeout":        workerConfig.MessageTimeout,
	}
	for option, value := range durations {
		if value != "" {
			settings[option] = value
		}
	}
	nsqConfig := nsq.NewConfig()
	nsqConfig.UserAgent = "livepremis go-nsq/" + nsq.VERSION
	for option, value := range settings {
		if err := nsqConfig.Set(option, value); err != nil {
			return nil, fmt.Errorf("Bad NSQ setting %s=%v: %v", option, value, err)
		}
	}
	return nsq.NewConsumer(workerConfig.NsqTopic, workerConfig.NsqChannel, nsqConfig)
}
