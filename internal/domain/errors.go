package domain

import "errors"

var (
	// ErrInputRequired signals a missing required tool input.
	ErrInputRequired = errors.New("text_input is required")
	// ErrPromptStore signals that a prompt template could not be fetched.
	ErrPromptStore = errors.New("prompt store unavailable")
	// ErrLLM signals a model invocation failure.
	ErrLLM = errors.New("llm call failed")
	// ErrParse signals model output that is not in the expected shape.
	ErrParse = errors.New("llm output parse failed")
	// ErrDatabase signals a catalog connection or query failure.
	ErrDatabase = errors.New("database error")
	// ErrFormat signals a formatting-stage template or model failure.
	ErrFormat = errors.New("result formatting failed")
)

// ErrorCategory maps an error chain to its machine-readable category name.
// Unrecognized errors fall through to InternalError.
func ErrorCategory(err error) string {
	switch {
	case errors.Is(err, ErrInputRequired):
		return "InputError"
	case errors.Is(err, ErrPromptStore):
		return "PromptStoreError"
	case errors.Is(err, ErrFormat):
		return "FormatError"
	case errors.Is(err, ErrParse):
		return "ParseError"
	case errors.Is(err, ErrLLM):
		return "LLMError"
	case errors.Is(err, ErrDatabase):
		return "DatabaseError"
	default:
		return "InternalError"
	}
}
