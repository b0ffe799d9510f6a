package theme

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaSource string

var manifestSchema = jsonschema.MustCompileString("theme.schema.json", schemaSource)

var (
	idPattern      = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

const (
	maxIDLength   = 100
	maxNameLength = 100
)

// FieldError is one problem found in a manifest, Path is dot separated
type FieldError struct {
	Path    string
	Message string
}

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

// ValidationError reports every structural or semantic problem in a manifest
type ValidationError struct {
	ThemeID string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	id := e.ThemeID
	if id == "" {
		id = "<unknown>"
	}
	return fmt.Sprintf("theme %s: invalid manifest: %s", id, strings.Join(parts, "; "))
}

// Has reports whether any problem mentions path
func (e *ValidationError) Has(path string) bool {
	for _, f := range e.Fields {
		if f.Path == path || strings.Contains(f.Message, "'"+path+"'") {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(path, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// IsValidationError reports whether err carries a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate decodes and checks a raw manifest
func Validate(raw []byte) (*Manifest, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		ve := &ValidationError{}
		ve.add("", "invalid JSON: %v", err)
		return nil, ve
	}

	ve := &ValidationError{}
	if obj, ok := doc.(map[string]any); ok {
		ve.ThemeID, _ = obj["id"].(string)
	}

	if err := manifestSchema.Validate(doc); err != nil {
		var se *jsonschema.ValidationError
		if !errors.As(err, &se) {
			ve.add("", "%v", err)
			return nil, ve
		}
		collectSchemaErrors(se, ve)
		return nil, ve
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		ve.add("", "decode: %v", err)
		return nil, ve
	}

	checkSemantics(&m, ve)
	if len(ve.Fields) > 0 {
		return nil, ve
	}
	return &m, nil
}

// ValidateManifest runs the semantic checks on an already decoded manifest
// Used for manifests built in code or seeded into the cache
func ValidateManifest(m *Manifest) error {
	ve := &ValidationError{}
	if m == nil {
		ve.add("", "manifest is nil")
		return ve
	}
	ve.ThemeID = m.ID
	if m.Canvas.Background == "" {
		ve.add("canvas.background", "required")
	}
	if len(m.Layers) == 0 {
		ve.add("layers", "at least one layer required")
	}
	if m.Zones == nil {
		ve.add("zones", "required")
	}
	if m.Characters.StatusBadge.Colors == nil {
		ve.add("characters.statusBadge", "colors required")
	}
	checkSemantics(m, ve)
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func collectSchemaErrors(se *jsonschema.ValidationError, ve *ValidationError) {
	if len(se.Causes) == 0 {
		ve.add(pointerToPath(se.InstanceLocation), "%s", se.Message)
		return
	}
	for _, c := range se.Causes {
		collectSchemaErrors(c, ve)
	}
}

// pointerToPath converts a JSON pointer like /zones/0/seats to zones.0.seats
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}

func checkSemantics(m *Manifest, ve *ValidationError) {
	if !idPattern.MatchString(m.ID) {
		ve.add("id", "must be kebab-case (e.g. my-cool-theme)")
	}
	if len(m.ID) > maxIDLength {
		ve.add("id", "must be at most %d characters", maxIDLength)
	}
	if name := strings.TrimSpace(m.Name); name == "" || len(m.Name) > maxNameLength {
		ve.add("name", "must be 1-%d characters", maxNameLength)
	}
	if !versionPattern.MatchString(m.Version) {
		ve.add("version", "must be semver (e.g. 1.0.0)")
	}
	if m.Canvas.Width <= 0 {
		ve.add("canvas.width", "must be positive")
	}
	if m.Canvas.Height <= 0 {
		ve.add("canvas.height", "must be positive")
	}

	layerIDs := make(map[string]bool, len(m.Layers))
	for i, l := range m.Layers {
		if layerIDs[l.ID] {
			ve.add(fmt.Sprintf("layers.%d.id", i), "duplicate layer id %q", l.ID)
		}
		layerIDs[l.ID] = true
	}

	zoneIDs := make(map[string]bool, len(m.Zones))
	for i, z := range m.Zones {
		if zoneIDs[z.ID] {
			ve.add(fmt.Sprintf("zones.%d.id", i), "duplicate zone id %q", z.ID)
		}
		zoneIDs[z.ID] = true

		seatIDs := make(map[string]bool, len(z.Seats))
		for j, s := range z.Seats {
			if seatIDs[s.ID] {
				ve.add(fmt.Sprintf("zones.%d.seats.%d.id", i, j), "duplicate seat id %q", s.ID)
			}
			seatIDs[s.ID] = true
		}
	}

	switch m.Renderer {
	case RendererThreeJS:
		if m.Room == nil || strings.TrimSpace(m.Room.Model) == "" {
			ve.add("room.model", "threejs themes require a room model path")
		}
	case RendererSprite:
		if m.Scene == nil || len(m.Scene.Backgrounds) == 0 {
			ve.add("scene.backgrounds", "sprite themes require scene backgrounds")
		}
	}
}
