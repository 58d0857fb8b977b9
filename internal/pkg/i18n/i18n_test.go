package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalize(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	data := map[string]any{"BatchCode": "B-1", "Requested": "3.00", "Available": "2.00"}

	assert.Equal(t,
		"Not enough stock for batch B-1: requested 3.00, available 2.00",
		tr.Localize("InsufficientStock", data))
	assert.Equal(t,
		"Stok batch B-1 tidak cukup: diminta 3.00, tersedia 2.00",
		tr.Localize("InsufficientStock", data, "id-ID,id;q=0.9"))
	assert.Equal(t,
		"Something went wrong, please try again",
		tr.Localize("InternalError", nil, "fr"))
	assert.Equal(t, "NoSuchMessage", tr.Localize("NoSuchMessage", nil))
}

func TestLanguageContext(t *testing.T) {
	ctx := WithLanguage(context.Background(), "id")
	assert.Equal(t, "id", LanguageFrom(ctx))
	assert.Equal(t, "", LanguageFrom(context.Background()))
}
