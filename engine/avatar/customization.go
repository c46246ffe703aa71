package avatar

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidCustomization is returned when a customization document fails validation.
var ErrInvalidCustomization = errors.New("invalid avatar customization")

// CustomizationVersion is the document version written by EncodeCustomization.
const CustomizationVersion = 1

//go:embed customization.schema.json
var customizationSchemaSrc string

var (
	customizationSchemaOnce sync.Once
	customizationSchema     *jsonschema.Schema
	customizationSchemaErr  error
)

func compiledCustomizationSchema() (*jsonschema.Schema, error) {
	customizationSchemaOnce.Do(func() {
		customizationSchema, customizationSchemaErr = jsonschema.CompileString("customization.schema.json", customizationSchemaSrc)
	})
	return customizationSchema, customizationSchemaErr
}

// Customization is the user-chosen look of an avatar.
type Customization struct {
	BodyType    string   `json:"bodyType"`
	Height      float32  `json:"height"`
	SkinTone    string   `json:"skinTone"`
	HairStyle   string   `json:"hairStyle,omitempty"`
	HairColor   string   `json:"hairColor,omitempty"`
	OutfitStyle string   `json:"outfitStyle,omitempty"`
	OutfitColor string   `json:"outfitColor,omitempty"`
	Accessories []string `json:"accessories,omitempty"`
	DisplayName string   `json:"displayName"`
}

// CustomizationDocument is the persisted customization envelope.
type CustomizationDocument struct {
	Version       int           `json:"version"`
	Timestamp     string        `json:"timestamp,omitempty"`
	Customization Customization `json:"customization"`
}

// DefaultCustomization returns the look used before the user picks one.
func DefaultCustomization() Customization {
	return Customization{
		BodyType:    "average",
		Height:      1.75,
		SkinTone:    "#d9ad8c",
		HairStyle:   "short",
		HairColor:   "#33210f",
		OutfitStyle: "casual",
		OutfitColor: "#40598f",
		DisplayName: "Guest",
	}
}

// EncodeCustomization writes c as a versioned document stamped with now.
func EncodeCustomization(c Customization, now time.Time) ([]byte, error) {
	return json.MarshalIndent(CustomizationDocument{
		Version:       CustomizationVersion,
		Timestamp:     now.UTC().Format(time.RFC3339),
		Customization: c,
	}, "", "  ")
}

// DecodeCustomization validates data against the customization schema and decodes it.
func DecodeCustomization(data []byte) (CustomizationDocument, error) {
	var doc CustomizationDocument
	schema, err := compiledCustomizationSchema()
	if err != nil {
		return doc, fmt.Errorf("compile customization schema: %w", err)
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return doc, fmt.Errorf("%w: %w", ErrInvalidCustomization, err)
	}
	if err := schema.Validate(raw); err != nil {
		return doc, fmt.Errorf("%w: %w", ErrInvalidCustomization, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: %w", ErrInvalidCustomization, err)
	}
	return doc, nil
}

// parseHex converts "#rrggbb" into a color. Invalid input yields ok=false.
func parseHex(s string) (common.Color, bool) {
	if len(s) != 7 || s[0] != '#' {
		return common.Color{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return common.Color{}, false
	}
	return common.RGB(float32(v>>16&0xff)/255, float32(v>>8&0xff)/255, float32(v&0xff)/255), true
}

// bodyWidth maps a body type to a torso width multiplier.
func bodyWidth(bodyType string) float32 {
	switch bodyType {
	case "slim":
		return 0.85
	case "broad":
		return 1.2
	default:
		return 1
	}
}
