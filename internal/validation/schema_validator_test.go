package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "tabs"],
  "properties": {
    "version": {"type": "string"},
    "tabs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "cost": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

func writeTempSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(treeSchema), 0644))
	return path
}

func TestValidateBytes_Valid(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeTempSchema(t)

	doc := `{"version": "1", "tabs": [{"id": "alchemy", "cost": 5}]}`
	assert.NoError(t, v.ValidateBytes([]byte(doc), schemaPath))
}

func TestValidateBytes_MissingRequiredField(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeTempSchema(t)

	err := v.ValidateBytes([]byte(`{"tabs": []}`), schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestValidateBytes_WrongType(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeTempSchema(t)

	doc := `{"version": "1", "tabs": [{"id": "alchemy", "cost": "five"}]}`
	err := v.ValidateBytes([]byte(doc), schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cost")
}

func TestValidateBytes_MalformedJSON(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeTempSchema(t)

	err := v.ValidateBytes([]byte(`{not json`), schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing document")
}

func TestValidateFile(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeTempSchema(t)

	dataPath := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`{"version": "1", "tabs": []}`), 0644))

	assert.NoError(t, v.ValidateFile(dataPath, schemaPath))
	assert.Error(t, v.ValidateFile(filepath.Join(t.TempDir(), "missing.json"), schemaPath))
}

func TestLoadSchema_Cached(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeTempSchema(t)

	doc := []byte(`{"version": "1", "tabs": []}`)
	require.NoError(t, v.ValidateBytes(doc, schemaPath))

	// Second validation hits the compiled-schema cache even if the file is gone.
	require.NoError(t, os.Remove(schemaPath))
	assert.NoError(t, v.ValidateBytes(doc, schemaPath))
}
