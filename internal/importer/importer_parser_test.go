package importer_test

import (
	"strings"
	"testing"

	"performa/internal/domain"
	"performa/internal/importer"
	importererrors "performa/internal/importer/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("header is case-insensitive and bom tolerant", func(t *testing.T) {
		in := "\ufeffName,EMAIL,PersonID,Role,Department,extra\n" +
			"Ani Wijaya, Ani@Example.com ,P-001,Manager,Engineering,ignored\n" +
			",,,,,\n" +
			"Budi,budi@example.com,P-002,employee,,\n"

		rows, err := importer.Parse(strings.NewReader(in), importer.MaxRows)

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, importer.Row{
			Line: 2, Name: "Ani Wijaya", Email: "ani@example.com", PersonID: "P-001",
			Role: domain.RoleManager, UserType: domain.UserTypeOffice, Department: "Engineering",
		}, rows[0])
		assert.Equal(t, 4, rows[1].Line, "blank rows keep the physical line numbers")
	})

	t.Run("missing required columns", func(t *testing.T) {
		_, err := importer.Parse(strings.NewReader("name,email\nAni,ani@example.com\n"), importer.MaxRows)
		assert.ErrorIs(t, err, importererrors.ErrMissingColumns)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := importer.Parse(strings.NewReader("name,personID,role\n"), importer.MaxRows)
		assert.ErrorIs(t, err, importererrors.ErrEmptyFile)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := importer.Parse(strings.NewReader(""), importer.MaxRows)
		assert.ErrorIs(t, err, importererrors.ErrEmptyFile)
	})

	t.Run("too many rows", func(t *testing.T) {
		in := "name,personID,role\nA,1,hr\nB,2,hr\nC,3,hr\n"
		_, err := importer.Parse(strings.NewReader(in), 2)
		assert.ErrorIs(t, err, importererrors.ErrTooManyRows)
	})

	t.Run("malformed quoting", func(t *testing.T) {
		in := "name,personID,role\nA\"ni,1,hr\n"
		_, err := importer.Parse(strings.NewReader(in), importer.MaxRows)
		assert.ErrorIs(t, err, importererrors.ErrMalformedCSV)
	})
}

func TestValidateRow(t *testing.T) {
	valid := importer.Row{Line: 2, Name: "Ani", Email: "ani@example.com", PersonID: "P-1", Role: "employee", UserType: "office"}
	assert.Empty(t, importer.ValidateRow(valid))

	t.Run("office users need an email", func(t *testing.T) {
		r := valid
		r.Email = ""
		errs := importer.ValidateRow(r)
		require.Len(t, errs, 1)
		assert.Equal(t, "email", errs[0].Field)
		assert.Equal(t, 2, errs[0].Line)
	})

	t.Run("operational users need a username", func(t *testing.T) {
		r := valid
		r.Email, r.UserType = "", "operational"
		errs := importer.ValidateRow(r)
		require.Len(t, errs, 1)
		assert.Equal(t, "username", errs[0].Field)
	})

	t.Run("unknown role and short password", func(t *testing.T) {
		r := valid
		r.Role, r.Password = "admin", "short"
		fields := []string{}
		for _, e := range importer.ValidateRow(r) {
			fields = append(fields, e.Field)
		}
		assert.ElementsMatch(t, []string{"role", "password"}, fields)
	})
}
