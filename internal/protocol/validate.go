package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var inboundSchemaFiles = map[string]string{
	TypeHello:  "hello.schema.json",
	TypeEdit:   "edit.schema.json",
	TypeQuery:  "query.schema.json",
	TypeChunk:  "chunk.schema.json",
	TypeLoad:   "load.schema.json",
	TypeUnload: "unload.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, name := range inboundSchemaFiles {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
			schemasErr = fmt.Errorf("add schema %s: %w", name, err)
			return
		}
	}
	out := make(map[string]*jsonschema.Schema, len(inboundSchemaFiles))
	for typ, name := range inboundSchemaFiles {
		s, err := c.Compile(name)
		if err != nil {
			schemasErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		out[typ] = s
	}
	schemas = out
}

// ValidateInbound checks a client message against the schema for its type.
func ValidateInbound(typ string, raw []byte) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	s, ok := schemas[typ]
	if !ok {
		return fmt.Errorf("unsupported message type %q", typ)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return s.Validate(v)
}
