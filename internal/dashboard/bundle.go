package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"homedash/internal/models"
)

// Format is a bundle serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user supplied name to a Format. Empty means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Export serializes apps and settings as a bundle stamped with the export time.
func (s *Store) Export(format Format) ([]byte, error) {
	s.mu.RLock()
	bundle := models.Bundle{
		Apps:      append([]models.App{}, s.apps...),
		Dashboard: s.settings,
		Metadata: models.BundleMetadata{
			ConfigVersion: models.ConfigVersion,
			LastExport:    models.Timestamp(s.clock.Now()),
		},
	}
	s.mu.RUnlock()

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode bundle: %w", err)
		}
		return data, nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(bundle); err != nil {
			return nil, fmt.Errorf("encode bundle: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode bundle: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Import validates data and replaces every app and the settings with its
// contents. Nothing changes when validation fails.
func (s *Store) Import(ctx context.Context, data []byte, format Format) (models.Bundle, error) {
	bundle, err := DecodeBundle(data, format)
	if err != nil {
		return models.Bundle{}, err
	}

	now := s.clock.Now()
	bundle.Dashboard = withDefaultMetadata(bundle.Dashboard, now)
	if bundle.Metadata.ConfigVersion == "" {
		bundle.Metadata.ConfigVersion = models.ConfigVersion
	}
	bundle.Metadata.LastImport = models.Timestamp(now)

	if err := s.replace(ctx, bundle.Apps, bundle.Dashboard); err != nil {
		return models.Bundle{}, err
	}
	s.logger.Info("configuration imported", "apps", len(bundle.Apps), "format", format)
	return bundle, nil
}

// DecodeBundle parses and validates a bundle without applying it.
func DecodeBundle(data []byte, format Format) (models.Bundle, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return models.Bundle{}, err
	}

	result, err := gojsonschema.Validate(bundleSchema, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return models.Bundle{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			reasons = append(reasons, e.String())
		}
		return models.Bundle{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(reasons, "; "))
	}

	var bundle models.Bundle
	if err := json.Unmarshal(doc, &bundle); err != nil {
		return models.Bundle{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if bundle.Apps == nil {
		bundle.Apps = []models.App{}
	}

	seen := make(map[string]struct{}, len(bundle.Apps))
	for _, app := range bundle.Apps {
		if err := validateApp(app); err != nil {
			return models.Bundle{}, err
		}
		if _, dup := seen[app.ID]; dup {
			return models.Bundle{}, fmt.Errorf("%w: duplicate app id %q", ErrInvalidConfig, app.ID)
		}
		seen[app.ID] = struct{}{}
	}
	return bundle, nil
}

func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: malformed json", ErrInvalidConfig)
		}
		return data, nil
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

var bundleSchema = gojsonschema.NewStringLoader(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["apps", "dashboard"],
  "properties": {
    "apps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "description", "icon", "accentColor", "url", "specification"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "icon": {"type": "string"},
          "accentColor": {"type": "string"},
          "url": {"type": "string"},
          "networkCheckEnabled": {"type": "boolean"},
          "specification": {
            "type": "object",
            "properties": {
              "category": {"type": "string"},
              "vendor": {"type": "string"},
              "type": {"type": "string"},
              "protocol": {"type": "string"},
              "port": {"type": "integer", "minimum": 1, "maximum": 65535},
              "version": {"type": "string"},
              "metadata": {"type": "object"}
            }
          },
          "colorScheme": {
            "type": "object",
            "required": ["primary"],
            "properties": {
              "primary": {"type": "string"},
              "secondary": {"type": "string"},
              "background": {"type": "string"},
              "text": {"type": "string"}
            }
          },
          "lastModified": {"type": "string"},
          "isCustom": {"type": "boolean"}
        }
      }
    },
    "dashboard": {
      "type": "object",
      "required": ["title", "subtitle", "footer", "networkCheckEnabled"],
      "properties": {
        "title": {"type": "string"},
        "subtitle": {"type": "string"},
        "footer": {"type": "string"},
        "networkCheckEnabled": {"type": "boolean"},
        "theme": {
          "type": "object",
          "properties": {
            "colorScheme": {"enum": ["light", "dark", "auto"]},
            "customColors": {"type": "object", "additionalProperties": {"type": "string"}}
          }
        },
        "metadata": {"type": "object"}
      }
    },
    "metadata": {"type": "object"}
  }
}`)
