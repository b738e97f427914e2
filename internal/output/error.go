package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

// ErrorOutput is the JSON shape of a failed command.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Cause      string            `json:"cause,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// Describe converts err into its reportable form.
func Describe(err error) ErrorDetail {
	var me *mserr.Error
	if !errors.As(err, &me) {
		return ErrorDetail{Code: "GENERAL_ERROR", Message: err.Error(), ExitCode: mserr.ExitGeneral}
	}
	detail := ErrorDetail{
		Code:       me.Code,
		Message:    me.Message,
		Details:    me.Details,
		Suggestion: me.Suggestion,
		ExitCode:   me.ExitCode,
	}
	if me.Cause != nil {
		detail.Cause = me.Cause.Error()
	}
	return detail
}

// FormatError writes err to w.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}
	detail := Describe(err)

	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: detail})
	}

	var sb strings.Builder
	sb.WriteString("Error: " + detail.Message)
	if detail.Cause != "" {
		sb.WriteString(": " + detail.Cause)
	}
	sb.WriteString("\n")

	if len(detail.Details) > 0 {
		keys := make([]string, 0, len(detail.Details))
		for k := range detail.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, detail.Details[k]))
		}
	}

	if detail.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", detail.Suggestion))
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
