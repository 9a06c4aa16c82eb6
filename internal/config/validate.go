package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// kind identifies one of the five document kinds, used as the compiled
// schema cache key (teacher precedent: core/types/validation_cache.go's
// validatorCache, here keyed by a fixed kind name instead of a schema hash
// since there are only ever five, embedded schemas).
type kind string

const (
	kindProject  kind = "project"
	kindUser     kind = "user"
	kindReleases kind = "releases"
	kindFeature  kind = "feature"
	kindTask     kind = "task"
)

var rawSchemas = map[kind]string{
	kindProject:  projectSchema,
	kindUser:     userSchema,
	kindReleases: releasesSchema,
	kindFeature:  featureSchema,
	kindTask:     taskSchema,
}

var (
	schemaCacheMu sync.Mutex
	schemaCache   = map[kind]*jsonschema.Schema{}
)

func compiledSchema(k kind) (*jsonschema.Schema, error) {
	schemaCacheMu.Lock()
	defer schemaCacheMu.Unlock()

	if s, ok := schemaCache[k]; ok {
		return s, nil
	}

	compiler := jsonschema.NewCompiler()
	resourceName := string(k) + ".json"
	if err := compiler.AddResource(resourceName, strings.NewReader(rawSchemas[k])); err != nil {
		return nil, fmt.Errorf("config: adding %s schema: %w", k, err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("config: compiling %s schema: %w", k, err)
	}
	schemaCache[k] = schema
	return schema, nil
}

// validate schema-checks raw against k's embedded schema before the caller
// unmarshals it into a concrete Go type (spec §7 ConfigParse).
func validate(k kind, raw []byte) error {
	schema, err := compiledSchema(k)
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config: %s document failed schema validation: %w", k, err)
	}
	return nil
}
