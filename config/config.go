package config

import (
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/metrico/datareader/model"
	"github.com/metrico/datareader/reader/shared"
)

// LoadSchema reads a schema definition from a YAML file.
func LoadSchema(filename string) (*model.SchemaFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, shared.NewResourceError(filename, err)
	}

	var schema model.SchemaFile
	err = yaml.Unmarshal(data, &schema)
	if err != nil {
		return nil, shared.NewConfigError("", err)
	}
	if len(schema.Fields) == 0 {
		return nil, shared.NewConfigError("", errors.Errorf("%s declares no fields", filename))
	}
	return &schema, nil
}
