package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vancomm/flattener/internal/terrain"
	"github.com/vancomm/flattener/internal/textio"
)

const maxBodyBytes = 8 << 20

const gridSchema = `{
	"type": "object",
	"required": ["grid"],
	"properties": {
		"grid": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "array",
				"minItems": 1,
				"items": {"type": "integer"}
			}
		}
	}
}`

func compileGridSchema() (*jsonschema.Schema, error) {
	s, err := jsonschema.CompileString("grid.schema.json", gridSchema)
	if err != nil {
		return nil, fmt.Errorf("unable to compile grid schema: %w", err)
	}
	return s, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func wantsText(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/plain")
}

// parseGrid reads either the whitespace text format or a JSON document with a
// "grid" array of rows.
func (h *Handler) parseGrid(data []byte, asJSON bool, n int) (*terrain.Grid, error) {
	if !asJSON {
		return textio.ReadGrid(bytes.NewReader(data), n)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", textio.ErrBadJSON, err)
	}
	if err := h.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", textio.ErrBadJSON, err)
	}
	return textio.ReadGridJSON(data, n)
}

func (h *Handler) readGrid(w http.ResponseWriter, r *http.Request, n int) (*terrain.Grid, int, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge, err
		}
		return nil, http.StatusBadRequest, err
	}
	g, err := h.parseGrid(data, isJSON(r.Header.Get("Content-Type")), n)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return g, http.StatusOK, nil
}
