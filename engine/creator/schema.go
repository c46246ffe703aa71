package creator

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidLayout is returned when an imported document is not a valid room export.
var ErrInvalidLayout = errors.New("invalid room layout")

//go:embed layout.schema.json
var layoutSchemaSrc string

var (
	layoutSchemaOnce sync.Once
	layoutSchema     *jsonschema.Schema
	layoutSchemaErr  error
)

// ParseLayout validates data against the room export schema and decodes it.
func ParseLayout(data []byte) (room.Layout, error) {
	var l room.Layout
	layoutSchemaOnce.Do(func() {
		layoutSchema, layoutSchemaErr = jsonschema.CompileString("layout.schema.json", layoutSchemaSrc)
	})
	if layoutSchemaErr != nil {
		return l, fmt.Errorf("compile layout schema: %w", layoutSchemaErr)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return l, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if err := layoutSchema.Validate(doc); err != nil {
		return l, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if err := json.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	return l, nil
}
