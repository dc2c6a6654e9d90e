package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a raw definition document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

var (
	// ErrMalformedDocument marks bytes that are not valid JSON/YAML or
	// that carry fields outside the definition envelope.
	ErrMalformedDocument = errors.New("malformed definition document")

	// ErrMissingSchemaVersion marks documents whose schemaVersion field is
	// absent or not a string. Such documents cannot enter the pipeline:
	// without a version there is no migration starting point.
	ErrMissingSchemaVersion = errors.New("definition has no schemaVersion")
)

// Decode parses raw bytes into a Definition.
//
// The envelope is strict: unknown top-level fields are rejected, as is
// trailing content. The page payload itself is free-form.
func Decode(data []byte, format Format) (Definition, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return Definition{}, fmt.Errorf("%w: unknown format %d", ErrMalformedDocument, format)
	}
}

func decodeJSON(data []byte) (Definition, error) {
	if !gjson.ValidBytes(data) {
		return Definition{}, fmt.Errorf("%w: invalid JSON", ErrMalformedDocument)
	}

	// Surface the common authoring mistake (missing or mistyped version)
	// with a precise error before the envelope decode gets a chance to
	// produce a generic one.
	sv := gjson.GetBytes(data, "schemaVersion")
	if !sv.Exists() || sv.Type != gjson.String {
		return Definition{}, ErrMissingSchemaVersion
	}

	var def Definition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	// Ensure no trailing junk.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Definition{}, fmt.Errorf("%w: trailing content", ErrMalformedDocument)
	}
	return def, nil
}

func decodeYAML(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, ErrMissingSchemaVersion
		}
		return Definition{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if def.SchemaVersion == "" {
		return Definition{}, ErrMissingSchemaVersion
	}
	return def, nil
}

// Encode renders a definition as indented JSON with a trailing newline,
// the on-disk form used by the store and the CLI output.
func Encode(def Definition) ([]byte, error) {
	b, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
