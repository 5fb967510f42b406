package sequencer

import (
	"fmt"
	"os"

	"github.com/godlykids/journey/internal/domain"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a step catalog override file. Either
// section may be omitted to keep the built-in catalog.
type catalogFile struct {
	Tutorial     []domain.Step `yaml:"tutorial"`
	DailySession []domain.Step `yaml:"daily_session"`
}

// LoadCatalogs returns the tutorial and daily-session catalogs, applying
// overrides from the YAML file at path when it exists. An empty path or a
// missing file yields the built-in catalogs; a malformed file is a startup
// error.
func LoadCatalogs(path string) (tutorial, daily *Catalog, err error) {
	tutorial = Tutorial()
	daily = DailySession()
	if path == "" {
		return tutorial, daily, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tutorial, daily, nil
		}
		return nil, nil, fmt.Errorf("read step catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse step catalog file %s: %w", path, err)
	}

	if len(file.Tutorial) > 0 {
		tutorial, err = NewCatalog("tutorial", file.Tutorial)
		if err != nil {
			return nil, nil, fmt.Errorf("step catalog file %s: %w", path, err)
		}
	}
	if len(file.DailySession) > 0 {
		daily, err = NewCatalog("daily_session", file.DailySession)
		if err != nil {
			return nil, nil, fmt.Errorf("step catalog file %s: %w", path, err)
		}
	}
	return tutorial, daily, nil
}
