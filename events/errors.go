package events

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
)

func unrecognizedKind(path string, value string) error {
	return core.NewError(
		fmt.Sprintf("events: unrecognized %s %q", path, value),
		goerrors.CategoryBadInput,
		core.ErrorUnrecognizedKind,
		map[string]any{
			"path":  path,
			"value": value,
		},
	)
}

func malformedField(path string, message string) error {
	return goerrors.NewValidation("events: malformed payload", goerrors.FieldError{
		Field:   path,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorMalformedPayload).
		WithSeverity(goerrors.SeverityError)
}

func malformedDecode(path string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "events: malformed payload at "+path).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorMalformedPayload)
}

// malformedRules converts ozzo rule failures into field errors rooted at path.
func malformedRules(path string, err error) error {
	if err == nil {
		return nil
	}
	var rules validation.Errors
	if !errors.As(err, &rules) {
		return malformedDecode(path, err)
	}
	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]goerrors.FieldError, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, goerrors.FieldError{
			Field:   joinPath(path, key),
			Message: rules[key].Error(),
		})
	}
	return goerrors.NewValidation("events: malformed payload", fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorMalformedPayload).
		WithSeverity(goerrors.SeverityError)
}

func joinPath(parent string, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
