package store

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/map-explorer/internal/model"
)

// YAMLLoader reads locations from a YAML document of the form:
//
//	locations:
//	  - id: "1"
//	    name: Central Park
//	    lat: 40.7812
//	    lng: -73.9665
//	    category: park
//	    description: ...
type YAMLLoader struct {
	Path string
}

type yamlDocument struct {
	Locations []model.LocationRecord `yaml:"locations"`
}

// Load implements Loader.
func (l YAMLLoader) Load(_ context.Context) ([]model.LocationRecord, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, eris.Wrap(err, "yaml: read file")
	}
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "yaml: parse %s", l.Path)
	}
	return doc.Locations, nil
}
