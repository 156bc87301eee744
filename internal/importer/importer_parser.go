package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"performa/internal/domain"
	importererrors "performa/internal/importer/errors"
	"performa/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
)

const MaxRows = 500

var requiredColumns = []string{"name", "role", "personid"}

// columns maps a lower-cased header name to the Row field index.
var columns = func() map[string]int {
	out := map[string]int{}
	t := reflect.TypeOf(Row{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("csv")
		if tag != "" && tag != "-" {
			out[strings.ToLower(tag)] = i
		}
	}
	return out
}()

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("csv")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Parse reads the header row and every data row. Unknown columns are ignored.
func Parse(r io.Reader, maxRows int) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, importererrors.ErrEmptyFile
		}
		return nil, importererrors.ErrMalformedCSV.WithDetails(err.Error())
	}

	index := make(map[int]int, len(header))
	seen := map[string]bool{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := columns[name]; ok {
			index[i] = field
			seen[name] = true
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, importererrors.ErrMissingColumns.
			WithMessage(fmt.Sprintf("the header row is missing required columns: %s", strings.Join(missing, ", "))).
			WithDetails(map[string]any{"missing": missing})
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, importererrors.ErrMalformedCSV.WithDetails(err.Error())
		}
		if blank(record) {
			continue
		}
		if len(rows) == maxRows {
			return nil, importererrors.ErrTooManyRows.
				WithMessage(fmt.Sprintf("the file has more than %d rows", maxRows))
		}

		line, _ := reader.FieldPos(0)
		row := Row{Line: line}
		v := reflect.ValueOf(&row).Elem()
		for i, value := range record {
			if field, ok := index[i]; ok {
				v.Field(field).SetString(strings.TrimSpace(value))
			}
		}
		rows = append(rows, normalize(row))
	}

	if len(rows) == 0 {
		return nil, importererrors.ErrEmptyFile
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalize(r Row) Row {
	r.Role = strings.ToLower(r.Role)
	r.UserType = strings.ToLower(r.UserType)
	if r.UserType == "" {
		r.UserType = domain.UserTypeOffice
	}
	r.Email = strings.ToLower(r.Email)
	return r
}

// ValidateRow checks one row against its schema and returns one error per
// offending field.
func ValidateRow(r Row) []RowError {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []RowError{{Line: r.Line, PersonID: r.PersonID, Message: err.Error()}}
	}

	out := make([]RowError, 0, len(verrs))
	for _, fe := range apperror.FieldErrors(verrs) {
		out = append(out, RowError{Line: r.Line, PersonID: r.PersonID, Field: fe.Field, Message: fe.Message})
	}
	return out
}
