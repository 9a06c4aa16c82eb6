package config

// Embedded JSON Schemas for the five document kinds (spec §6), Draft 2020-12.
// Kept intentionally permissive on nested `parameters`/`recipe` shapes (task
// kinds define their own parameter sets; the schema only pins down the
// envelope every document of that kind must have).

const projectSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["databases", "releases", "features", "tasks"],
  "properties": {
    "databases": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "releases": {"type": "string"},
    "features": {"anyOf": [{"type": "string"}, {"type": "array", "items": {"type": "string"}}]},
    "tasks": {"anyOf": [{"type": "string"}, {"type": "array", "items": {"type": "string"}}]}
  }
}`

const userSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["backupDirectory", "backupRegex", "connection", "rootPath"],
  "properties": {
    "backupDirectory": {"type": "string"},
    "backupRegex": {"type": "string"},
    "environment": {"type": "string"},
    "release": {"type": "string"},
    "connection": {"type": "string"},
    "rootPath": {"type": "string"},
    "maxCacheSize": {"type": "integer"},
    "autoGC": {"type": "boolean"},
    "minDeployTime": {"type": "integer", "minimum": 0},
    "beeps": {"type": "object", "additionalProperties": {"type": "boolean"}}
  }
}`

const releasesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name"],
    "properties": {
      "name": {"type": "string"},
      "baseline": {"type": "string"},
      "features": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

const featureSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "recipe"],
  "properties": {
    "name": {"type": "string"},
    "recipe": {
      "type": "array",
      "items": {"type": "object", "minProperties": 1, "maxProperties": 1}
    }
  }
}`

const taskSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "commands"],
  "properties": {
    "name": {"type": "string"},
    "define": {"type": "object"},
    "requires": {"type": "array", "items": {"type": "string"}},
    "commands": {"type": "object"}
  }
}`
