package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model answered without any content.
var ErrEmptyResponse = errors.New("LLM response was empty")

type ErrUnsupportedProvider struct {
	Provider string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider: %s", e.Provider)
}
