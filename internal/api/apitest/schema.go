package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Request bodies are checked against these before they touch server state,
// so a client sending the wrong shape gets a 400 like a real backend would.
var (
	loginSchema = jsonschema.MustCompileString("login.json", `{
		"type": "object",
		"required": ["username", "password"],
		"properties": {
			"username": {"type": "string"},
			"password": {"type": "string"}
		}
	}`)
	createSchema = jsonschema.MustCompileString("create.json", `{
		"type": "object",
		"required": ["body", "complete"],
		"properties": {
			"body": {"type": "string"},
			"complete": {"type": "boolean"}
		}
	}`)
	patchSchema = jsonschema.MustCompileString("patch.json", `{
		"type": "object",
		"required": ["complete"],
		"properties": {
			"complete": {"type": "boolean"}
		}
	}`)
)

func decode(r *http.Request, schema *jsonschema.Schema, out any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return errEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse body: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
