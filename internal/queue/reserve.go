package queue

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oggyb/muzz-swipe/internal/domain"
)

type reserveFile struct {
	Reserve []struct {
		ID         string            `yaml:"id"`
		Attributes map[string]string `yaml:"attributes"`
	} `yaml:"reserve"`
}

// DefaultReserve is the fallback set shown while Discovery is unreachable.
// The ids are not backed by real accounts, so the backend answers decisions
// on them with NotFound and the engine skips past them.
func DefaultReserve() []domain.Profile {
	return []domain.Profile{
		{ID: "reserve-1", Attributes: map[string]string{"display_name": "Muzz Team", "bio": "We're having trouble loading new profiles. Pull to retry."}},
		{ID: "reserve-2", Attributes: map[string]string{"display_name": "Tip", "bio": "Complete your profile to get better matches."}},
		{ID: "reserve-3", Attributes: map[string]string{"display_name": "Tip", "bio": "Superlikes put you at the top of someone's queue."}},
	}
}

// LoadReserve reads the `reserve` section of the settings file. An empty
// path, or a file without the section, yields DefaultReserve.
func LoadReserve(path string) ([]domain.Profile, error) {
	if path == "" {
		return DefaultReserve(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reserve file: %w", err)
	}
	var f reserveFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse reserve file: %w", err)
	}
	if len(f.Reserve) == 0 {
		return DefaultReserve(), nil
	}

	out := make([]domain.Profile, 0, len(f.Reserve))
	seen := make(map[string]struct{}, len(f.Reserve))
	for _, r := range f.Reserve {
		p := domain.Profile{ID: r.ID, Attributes: r.Attributes}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("reserve entry: %w", err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("reserve entry %q listed twice", p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
