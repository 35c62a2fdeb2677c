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

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
	schemaErr  error
)

func loadSchemas() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	files := map[string]string{
		TypeHello: "hello.schema.json",
		TypeAct:   "act.schema.json",
	}
	out := make(map[string]*jsonschema.Schema, len(files))
	for typ, name := range files {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		s, err := c.Compile(name)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", name, err)
			return
		}
		out[typ] = s
	}
	schemas = out
}

// Validate checks a raw client message against the schema for its type.
// Types without a schema pass.
func Validate(typ string, raw []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	s, ok := schemas[typ]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

// DecodeAct validates and decodes an ACT message.
func DecodeAct(raw []byte) (ActMsg, error) {
	var m ActMsg
	if err := Validate(TypeAct, raw); err != nil {
		return m, err
	}
	err := json.Unmarshal(raw, &m)
	return m, err
}

func DecodeHello(raw []byte) (HelloMsg, error) {
	var m HelloMsg
	if err := Validate(TypeHello, raw); err != nil {
		return m, err
	}
	err := json.Unmarshal(raw, &m)
	return m, err
}
