package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNoJSON is returned when a reply holds no JSON object at all.
var ErrNoJSON = errors.New("llm: no JSON object in reply")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ExtractObject returns the text between the first '{' and the last '}'.
// Models often wrap JSON in prose or code fences.
func ExtractObject(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return reply[start : end+1], nil
}

// DecodeObject extracts the JSON object from reply, unmarshals it into dest
// and validates dest's struct tags.
func DecodeObject(reply string, dest any) error {
	raw, err := ExtractObject(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("llm: decode reply: %w", err)
	}
	if err := validate.Struct(dest); err != nil {
		return fmt.Errorf("llm: reply does not match schema: %w", err)
	}
	return nil
}
