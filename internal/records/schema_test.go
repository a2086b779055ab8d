package records

import (
	"errors"
	"leadsync/internal/apperrors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactSchema() *Schema {
	return NewSchema("contacts", 1,
		Column{Field: "id", Required: true},
		Column{Field: "project_id", Required: true},
		Column{Field: "email"},
		Column{Field: "status"},
		Column{Field: "note"},
	)
}

func TestSchema_DecodePadsShortRows(t *testing.T) {
	values, err := contactSchema().Decode([]string{"c1", "p1", "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", values["email"])
	assert.Equal(t, "", values["note"])
}

func TestSchema_DecodeRequiresIdentityAndRequired(t *testing.T) {
	s := contactSchema()

	_, err := s.Decode([]string{"", "p1", "a@x.com"})
	assert.True(t, errors.Is(err, apperrors.ErrMalformedRow))

	_, err = s.Decode([]string{"c1", "  "})
	assert.True(t, errors.Is(err, apperrors.ErrMalformedRow))

	_, err = s.Decode(nil)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedRow))
}

func TestSchema_EncodeFixedWidth(t *testing.T) {
	row := contactSchema().Encode(map[string]string{"id": "c1", "status": "new"})
	assert.Equal(t, []string{"c1", "", "", "new", ""}, row)
}

func TestSchema_MergeKeepsUntouchedColumnsVerbatim(t *testing.T) {
	current := []string{"c1", "p1", " A@X.com ", "new", "call back", "extra"}
	row, err := contactSchema().Merge(current, Update{"status": "done"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "p1", " A@X.com ", "done", "call back", "extra"}, row)
}

func TestSchema_MergeRejectsUnknownAndKeyChanges(t *testing.T) {
	s := contactSchema()
	current := []string{"c1", "p1"}

	_, err := s.Merge(current, Update{"phone": "1"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = s.Merge(current, Update{"id": "c2"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = s.Merge(current, Update{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	row, err := s.Merge(current, Update{"id": "c1", "note": "same key is fine"})
	require.NoError(t, err)
	assert.Equal(t, "same key is fine", row[4])
}

func TestSchema_WithLayoutMovesColumns(t *testing.T) {
	s, err := contactSchema().WithLayout("Contacts v2", map[string]int{"note": 7, "status": 5})
	require.NoError(t, err)

	assert.Equal(t, "Contacts v2", s.Sheet())
	assert.Equal(t, 8, s.Width())
	row := s.Encode(map[string]string{"id": "c1", "project_id": "p1", "note": "n", "status": "s"})
	assert.Equal(t, []string{"c1", "p1", "", "", "", "s", "", "n"}, row)

	// original untouched
	assert.Equal(t, 5, contactSchema().Width())
}

func TestSchema_WithLayoutRejectsCollisions(t *testing.T) {
	_, err := contactSchema().WithLayout("", map[string]int{"note": 2})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = contactSchema().WithLayout("", map[string]int{"phone": 9})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
