package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"tour-server/models"
)

// CatalogSchema is the JSON Schema every catalog document must satisfy before
// it is decoded.
const CatalogSchema = `{
	"type": "object",
	"definitions": {
		"localized": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "string", "minLength": 1}
		},
		"coordinates": {
			"type": "object",
			"properties": {
				"lat": {"type": "number", "minimum": -90, "maximum": 90},
				"lon": {"type": "number", "minimum": -180, "maximum": 180}
			},
			"required": ["lat", "lon"]
		}
	},
	"properties": {
		"languages": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"minItems": 1,
			"uniqueItems": true
		},
		"pois": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string"},
					"location": {"$ref": "#/definitions/coordinates"},
					"radius": {"type": "number", "minimum": 0},
					"description": {"$ref": "#/definitions/localized"},
					"audio": {"$ref": "#/definitions/localized"},
					"image": {"type": "string"}
				},
				"required": ["id", "name", "location", "radius", "description", "audio"]
			}
		},
		"ads": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string"},
					"description": {"$ref": "#/definitions/localized"},
					"audio": {"$ref": "#/definitions/localized"},
					"image": {"type": "string"}
				},
				"required": ["id", "name", "description", "audio"]
			}
		},
		"route": {
			"type": "array",
			"items": {"$ref": "#/definitions/coordinates"}
		}
	},
	"required": ["languages"]
}`

var catalogSchemaLoader = gojsonschema.NewStringLoader(CatalogSchema)

// LoadCatalogFile reads a JSON or YAML (by extension) catalog from path.
func LoadCatalogFile(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseCatalogYAML(data)
	default:
		return ParseCatalogJSON(data)
	}
}

func ParseCatalogJSON(data []byte) (*models.Catalog, error) {
	result, err := gojsonschema.Validate(catalogSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("catalog is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("catalog failed schema validation: %s", strings.Join(problems, "; "))
	}

	var catalog models.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := ValidateCatalog(&catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// ParseCatalogYAML converts the YAML document to JSON so both formats go
// through the same schema.
func ParseCatalogYAML(data []byte) (*models.Catalog, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert catalog yaml: %w", err)
	}
	return ParseCatalogJSON(asJSON)
}

// ValidateCatalog checks what the schema cannot: ids are unique across POIs
// and ads, and every record carries every catalog language.
func ValidateCatalog(c *models.Catalog) error {
	seen := make(map[string]bool, len(c.POIs)+len(c.Ads))
	check := func(kind, id string, description, audio map[string]string) error {
		if seen[id] {
			return fmt.Errorf("duplicate catalog id %q", id)
		}
		seen[id] = true
		for _, lang := range c.Languages {
			if description[lang] == "" {
				return fmt.Errorf("%s %q has no %q description", kind, id, lang)
			}
			if audio[lang] == "" {
				return fmt.Errorf("%s %q has no %q audio", kind, id, lang)
			}
		}
		return nil
	}
	for _, p := range c.POIs {
		if p.Radius <= 0 {
			return fmt.Errorf("poi %q radius must be positive", p.ID)
		}
		if err := check("poi", p.ID, p.Description, p.Audio); err != nil {
			return err
		}
	}
	for _, a := range c.Ads {
		if err := check("ad", a.ID, a.Description, a.Audio); err != nil {
			return err
		}
	}
	return nil
}

// AdsMissingPrefix lists ad ids that viewers relying on the id convention
// would mistake for POIs.
func AdsMissingPrefix(c *models.Catalog, prefix string) []string {
	var out []string
	for _, a := range c.Ads {
		if !strings.HasPrefix(a.ID, prefix) {
			out = append(out, a.ID)
		}
	}
	return out
}
