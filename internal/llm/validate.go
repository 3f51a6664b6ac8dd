package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var validators = struct {
	sync.Mutex
	byName map[string]*jsonschema.Schema
}{byName: make(map[string]*jsonschema.Schema)}

// validateAgainst checks content against schema. A nil schema accepts
// anything.
func validateAgainst(schema *Schema, content json.RawMessage) *Error {
	if schema == nil {
		return nil
	}
	invalid := func(err error) *Error {
		return &Error{Kind: KindInvalidResponse, Content: content, Err: err}
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(content))
	if err != nil {
		return invalid(fmt.Errorf("not JSON: %w", err))
	}
	v, err := compiled(schema)
	if err != nil {
		return invalid(err)
	}
	if err := v.Validate(doc); err != nil {
		return invalid(err)
	}
	return nil
}

func compiled(schema *Schema) (*jsonschema.Schema, error) {
	validators.Lock()
	defer validators.Unlock()
	if v, ok := validators.byName[schema.Name]; ok {
		return v, nil
	}

	raw, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", schema.Name, err)
	}
	url := "mem://schemas/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema %s: %w", schema.Name, err)
	}
	v, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}
	validators.byName[schema.Name] = v
	return v, nil
}
