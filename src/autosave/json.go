package autosave

import (
	"encoding/json"
	"fmt"
	"io"
)

func encodeJSON(w io.Writer, v interface{}) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encoding autosave payload: %w", err)
	}
	return nil
}
