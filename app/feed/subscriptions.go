package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Subscription is one entry of the optional bootstrap file. Only the
// URL is required; Title becomes the feed's custom title when set.
type Subscription struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title,omitempty"`
}

type subscriptionsFile struct {
	Feeds []Subscription `yaml:"feeds"`
}

// LoadSubscriptions reads the bootstrap subscriptions file. A missing
// file is not an error, the feature is opt-in.
func LoadSubscriptions(path string) ([]Subscription, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var file subscriptionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions file: %w", err)
	}

	subscriptions := make([]Subscription, 0, len(file.Feeds))
	for _, sub := range file.Feeds {
		if sub.URL == "" {
			continue
		}
		subscriptions = append(subscriptions, sub)
	}

	return subscriptions, nil
}
