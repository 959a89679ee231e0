package bulk

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// OperationType names the variant of an Operation.
type OperationType string

const (
	OpMoveFile     OperationType = "move_file"
	OpMoveFolder   OperationType = "move_folder"
	OpCreateFolder OperationType = "create_folder"
	OpRenameFile   OperationType = "rename_file"
	OpRenameFolder OperationType = "rename_folder"
)

// Operation is one typed change. Which fields are required depends on Type:
//
//	move_file, move_folder:     sourceId, destinationParentId
//	create_folder:              newName, destinationParentId
//	rename_file, rename_folder: sourceId, newName
type Operation struct {
	Type                OperationType `json:"type" validate:"required,oneof=move_file move_folder create_folder rename_file rename_folder"`
	SourceID            string        `json:"sourceId,omitempty"`
	DestinationParentID string        `json:"destinationParentId,omitempty"`
	NewName             string        `json:"newName,omitempty"`
}

// ValidationError describes a structurally invalid batch or item.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(operationStructLevel, Operation{})
	return v
}

func operationStructLevel(sl validator.StructLevel) {
	op := sl.Current().Interface().(Operation)

	require := func(value, field, structField string) {
		if strings.TrimSpace(value) == "" {
			sl.ReportError(value, field, structField, "required", "")
		}
	}

	switch op.Type {
	case OpMoveFile, OpMoveFolder:
		require(op.SourceID, "sourceId", "SourceID")
		require(op.DestinationParentID, "destinationParentId", "DestinationParentID")
	case OpCreateFolder:
		require(op.NewName, "newName", "NewName")
		require(op.DestinationParentID, "destinationParentId", "DestinationParentID")
	case OpRenameFile, OpRenameFolder:
		require(op.SourceID, "sourceId", "SourceID")
		require(op.NewName, "newName", "NewName")
	}
}

// Validate checks that op carries the fields its type requires.
func (op Operation) Validate() error {
	err := validate.Struct(op)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch {
	case fe.Field() == "type" && fe.Tag() == "required":
		return &ValidationError{Field: "type", Reason: "is required"}
	case fe.Field() == "type":
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))}
	default:
		return &ValidationError{Field: fe.Field(), Reason: fmt.Sprintf("is required for %s", op.Type)}
	}
}
