package source

import (
	"bytes"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"maintcal/internal/model"
)

// Format is a requirement file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown requirement format")

// FormatOf guesses the format from a file name or URL path extension.
func FormatOf(name string) (Format, error) {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", name)
}

// document is the wrapped form of a requirement file:
//
//	requirements:
//	  - code: VENT
//	    ...
type document struct {
	Requirements []model.Requirement `yaml:"requirements" json:"requirements"`
}

// Decode parses data in the given format and validates every requirement.
func Decode(format Format, data []byte) ([]model.Requirement, error) {
	var (
		reqs []model.Requirement
		err  error
	)
	switch format {
	case FormatYAML:
		reqs, err = decodeYAML(data)
	case FormatJSON:
		reqs, err = decodeJSON(data)
	case FormatXLSX:
		reqs, err = DecodeXLSX(bytes.NewReader(data))
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func decodeYAML(data []byte) ([]model.Requirement, error) {
	var list []model.Requirement
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse yaml requirements")
	}
	return doc.Requirements, nil
}

func decodeJSON(data []byte) ([]model.Requirement, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []model.Requirement
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.Wrap(err, "parse json requirements")
		}
		return list, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, errors.Wrap(err, "parse json requirements")
	}
	return doc.Requirements, nil
}

var validate = validator.New()

// Validate checks the structural invariants of each requirement
// (code and name present, equipment count >= 1).
func Validate(reqs []model.Requirement) error {
	for i, r := range reqs {
		if err := validate.Struct(r); err != nil {
			return errors.Wrapf(err, "requirement %d (%s)", i+1, r.Code)
		}
	}
	return nil
}
