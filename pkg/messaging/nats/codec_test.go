package nats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/cmscore/pkg/domain"
)

func TestCodecRoundTrip(t *testing.T) {
	moduleTypeID := uuid.New()
	e := domain.Event{
		ID:            "01JABCDEF0123456789ABCDEFG",
		Kind:          "Created",
		AggregateType: "Module",
		AggregateID:   uuid.New(),
		SiteID:        uuid.New(),
		Version:       1,
		Timestamp:     time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC),
		Data:          map[string]any{"moduleTypeId": moduleTypeID, "title": "News", "zone": nil},
	}

	b, err := encodeEvent(e)
	require.NoError(t, err)

	got, err := decodeEvent(b)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Type(), got.Type())
	assert.Equal(t, e.AggregateID, got.AggregateID)
	assert.Equal(t, e.SiteID, got.SiteID)
	assert.Equal(t, e.Version, got.Version)
	assert.True(t, e.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, moduleTypeID.String(), got.Data["moduleTypeId"])
	assert.Equal(t, "News", got.Data["title"])
	assert.Nil(t, got.Data["zone"])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeEvent([]byte{0xff, 0x01, 0x02})
	assert.Error(t, err)

	// An empty struct lacks ids.
	_, err = decodeEvent(nil)
	assert.Error(t, err)
}
