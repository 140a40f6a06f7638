package quota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lucasviinic/flashly-api/pkg/tier"
)

type memorySource struct {
	tiers map[tier.Tier]Limits
}

// NewMemorySource returns a Source serving a copy of tiers.
func NewMemorySource(tiers map[tier.Tier]Limits) Source {
	c := make(map[tier.Tier]Limits, len(tiers))
	for t, l := range tiers {
		c[t] = maps.Clone(l)
	}
	return &memorySource{tiers: c}
}

func (s *memorySource) Load(context.Context) (map[tier.Tier]Limits, error) {
	out := make(map[tier.Tier]Limits, len(s.tiers))
	for t, l := range s.tiers {
		out[t] = maps.Clone(l)
	}
	return out, nil
}

// yamlPolicy is the policy file layout:
//
//	tiers:
//	  free:
//	    flashcards: 50
//	    ai_flashcards: 5
//	    subjects: 5
//	  premium:
//	    flashcards: 1000
//	    ai_flashcards: 100
//	    subjects: -1
type yamlPolicy struct {
	Tiers map[string]map[Kind]int64 `yaml:"tiers"`
}

type yamlSource struct {
	open func() (io.ReadCloser, error)
}

// NewYAMLSource returns a Source reading the policy file at path.
func NewYAMLSource(path string) Source {
	return &yamlSource{open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// NewYAMLReaderSource returns a Source decoding r on the first Load.
func NewYAMLReaderSource(r io.Reader) Source {
	return &yamlSource{open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil }}
}

func (s *yamlSource) Load(context.Context) (map[tier.Tier]Limits, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var doc yamlPolicy
	dec := yaml.NewDecoder(rc)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrInvalidPolicy, err)
	}

	out := make(map[tier.Tier]Limits, len(doc.Tiers))
	for name, limits := range doc.Tiers {
		t, err := parseTier(name)
		if err != nil {
			return nil, err
		}
		out[t] = Limits(limits)
	}
	return out, nil
}

func parseTier(name string) (tier.Tier, error) {
	switch name {
	case "free", "0":
		return tier.Free, nil
	case "premium", "1":
		return tier.Premium, nil
	default:
		return 0, errors.Join(ErrInvalidPolicy, fmt.Errorf("unknown tier %q", name))
	}
}
