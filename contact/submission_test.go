package contact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MissingField(t *testing.T) {
	tests := []struct {
		name      string
		in        [3]string
		wantField string
	}{
		{"all empty", [3]string{"", "", ""}, FieldName},
		{"name empty", [3]string{"", "alice@example.com", "Hi"}, FieldName},
		{"email empty", [3]string{"Alice", "", "Hi"}, FieldEmail},
		{"message empty", [3]string{"Alice", "alice@example.com", ""}, FieldMessage},
		{"message empty with bad email", [3]string{"Alice", "nodotcom", ""}, FieldMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in[0], tt.in[1], tt.in[2])
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingField)
			assert.NotErrorIs(t, err, ErrInvalidEmail)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, MissingField, ve.Kind)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, MsgMissingField, ve.Message())
		})
	}
}

func TestValidate_InvalidEmail(t *testing.T) {
	for _, email := range []string{
		"bob@@nodot",
		"nodotcom",
		"alice@example",
		"@example.com",
		"alice@.com",
		"alice@example.",
		"al ice@example.com",
		"alice@exa mple.com",
		"alice@example.com\n",
		"a\vb@example.com",
		"a\u00a0b@example.com",
		"a\u2028b@example.com",
		"alice@exa\u3000mple.com",
		"alice@example.com\ufeff",
	} {
		t.Run(email, func(t *testing.T) {
			err := Validate("Alice", email, "Hi")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidEmail)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, FieldEmail, ve.Field)
			assert.Equal(t, MsgInvalidEmail, ve.Message())
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate("Alice", "alice@example.com", "Hi"))
	assert.NoError(t, Validate("Bob", "bob@mail.example.co.uk", "Hello there"))
	assert.NoError(t, Submission{Name: "Alice", Email: "a@b.c", Message: "x"}.Validate())
}

func TestValidate_WhitespaceIsNotTrimmed(t *testing.T) {
	assert.NoError(t, Validate(" ", "alice@example.com", "\t"))
	assert.ErrorIs(t, Validate("Alice", " alice@example.com", "Hi"), ErrInvalidEmail)
}

func TestValidationKind_String(t *testing.T) {
	assert.Equal(t, "missing_field", MissingField.String())
	assert.Equal(t, "invalid_email", InvalidEmail.String())
	assert.Equal(t, "unknown", ValidationKind(0).String())
}
