package source

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// FileSource reads a YAML fixture of the form
//
//	people:
//	  - {id: 1, name: Ada}
//	relationships:
//	  - {id: 1, person1_id: 1, person2_id: 2, intensity: friend}
type FileSource struct {
	path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Kind returns "file".
func (s *FileSource) Kind() string { return "file" }

// Path returns the fixture path.
func (s *FileSource) Path() string { return s.path }

// Load reads and parses the fixture.
func (s *FileSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a fixture and normalises relationship intensities.
func ParseYAML(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, errors.Wrap(err, "parse dataset")
	}
	if err := normalise(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// normalise parses intensities case-insensitively. A missing intensity
// means acquaintance.
func normalise(ds *Dataset) error {
	for i := range ds.Edges {
		e := &ds.Edges[i]
		if e.Intensity == "" {
			e.Intensity = visualization.IntensityAcquaintance
			continue
		}
		in, err := visualization.ParseIntensity(string(e.Intensity))
		if err != nil {
			return errors.Wrapf(err, "relationship %d", e.ID)
		}
		e.Intensity = in
	}
	return nil
}
