package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mext-feed/internal/domain/entity"
)

// feedsFile is the document form with a top-level "feeds:" key.
type feedsFile struct {
	Feeds []entity.FeedDescriptor `yaml:"feeds"`
}

// LoadFeeds reads the feed registry at path.
//
// The registry is YAML, either a mapping with a "feeds" list or a bare list.
// When the document is not valid YAML, a line scanner extracts whatever
// "key: value" blocks it can find instead of failing. Descriptors keep registry
// order and have the default category applied.
func LoadFeeds(path string) ([]entity.FeedDescriptor, error) {
	// #nosec G304 -- path is provided by trusted source (CLI flag or default)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read feeds %s: %v", ErrConfigLoad, path, err)
	}

	feeds, err := decodeFeedsYAML(data)
	if err != nil {
		feeds = scanFeeds(data)
	}

	out := make([]entity.FeedDescriptor, 0, len(feeds))
	for _, f := range feeds {
		f = trimDescriptor(f)
		if f == (entity.FeedDescriptor{}) {
			continue
		}
		out = append(out, f.WithDefaults())
	}
	return out, nil
}

func decodeFeedsYAML(data []byte) ([]entity.FeedDescriptor, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	// empty document
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var feeds []entity.FeedDescriptor
		if err := doc.Decode(&feeds); err != nil {
			return nil, err
		}
		return feeds, nil
	case yaml.MappingNode:
		var f feedsFile
		if err := doc.Decode(&f); err != nil {
			return nil, err
		}
		return f.Feeds, nil
	default:
		return nil, fmt.Errorf("unexpected YAML node kind %d at top level", doc.Kind)
	}
}

// scanFeeds is the best-effort reader for registries that are not valid YAML.
// A line starting with "-" opens a block; "key: value" lines fill the current
// block. It never fails.
func scanFeeds(data []byte) []entity.FeedDescriptor {
	var (
		feeds   []entity.FeedDescriptor
		current *entity.FeedDescriptor
	)
	flush := func() {
		if current != nil {
			feeds = append(feeds, *current)
			current = nil
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "-") {
			flush()
			current = &entity.FeedDescriptor{}
			line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
			if line == "" {
				continue
			}
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = unquote(strings.TrimSpace(value))

		if current == nil {
			// "feeds:" header or a key before the first boundary marker
			if key == "feeds" && value == "" {
				continue
			}
			current = &entity.FeedDescriptor{}
		}

		switch key {
		case "id":
			current.ID = value
		case "name":
			current.Name = value
		case "url":
			current.URL = value
		case "category":
			current.Category = value
		}
	}
	flush()
	// bufio.Scanner errors (overlong lines) end the scan with what was read so far.
	return feeds
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func trimDescriptor(d entity.FeedDescriptor) entity.FeedDescriptor {
	return entity.FeedDescriptor{
		ID:       strings.TrimSpace(d.ID),
		Name:     strings.TrimSpace(d.Name),
		URL:      strings.TrimSpace(d.URL),
		Category: strings.TrimSpace(d.Category),
	}
}
