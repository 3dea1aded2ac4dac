package network

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NSQClient queues premis record paths for the fixity worker.
//
// Note that this client provides write access to queue, so we can
// add things. It does not provide read access. The workers do the
// reading.
type NSQClient struct {
	URL        string
	httpClient *http.Client
}

// Returns a new NSQ client that posts to the nsqd HTTP endpoint at
// url. The URL is typically available through
// Config.NsqdHttpAddress, and usually ends with :4151.
func NewNSQClient(url string) *NSQClient {
	return &NSQClient{
		URL:        strings.TrimRight(url, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enqueue puts recordPath into topic. The message body is the path
// itself, which the worker will open.
func (client *NSQClient) Enqueue(topic, recordPath string) error {
	if strings.TrimSpace(recordPath) == "" {
		return fmt.Errorf("Cannot queue an empty record path")
	}
	putUrl := fmt.Sprintf("%s/put?topic=%s", client.URL, url.QueryEscape(topic))
	resp, err := client.httpClient.Post(putUrl, "text/plain", bytes.NewBufferString(recordPath))
	if err != nil {
		return fmt.Errorf("Nsqd returned an error when queuing data: %v", err)
	}

	// nsqd sends a simple OK. We have to read the response body,
	// or the connection will hang open forever.
	body, _ := ioutil.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyText := "[no response body]"
		if len(body) > 0 {
			bodyText = string(body)
		}
		return fmt.Errorf("nsqd returned status code %d when attempting to queue %s. "+
			"Response body: %s", resp.StatusCode, recordPath, bodyText)
	}
	return nil
}

// EnqueueAll queues each path in recordPaths, stopping at the first
// error. It returns the number of paths queued.
func (client *NSQClient) EnqueueAll(topic string, recordPaths []string) (int, error) {
	for i, recordPath := range recordPaths {
		if err := client.Enqueue(topic, recordPath); err != nil {
			return i, err
		}
	}
	return len(recordPaths), nil
}

// Ping returns an error unless nsqd answers its /ping endpoint.
func (client *NSQClient) Ping() error {
	resp, err := client.httpClient.Get(client.URL + "/ping")
	if err != nil {
		return fmt.Errorf("No response from nsqd at '%s'. Is it running? %v", client.URL, err)
	}
	ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nsqd at '%s' returned status %d on ping", client.URL, resp.StatusCode)
	}
	return nil
}
