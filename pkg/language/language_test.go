package language

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/plaenen/cmscore/pkg/domain"
)

func allow[C any]() domain.Validator[C] {
	return domain.ValidatorFunc[C](func(context.Context, C) (domain.Failures, error) { return nil, nil })
}

func reject[C any](fs ...domain.Failure) domain.Validator[C] {
	return domain.ValidatorFunc[C](func(context.Context, C) (domain.Failures, error) { return fs, nil })
}

func newActive(t *testing.T) *Language {
	t.Helper()
	return Restore(State{
		SiteID:      uuid.New(),
		ID:          uuid.New(),
		Name:        "English",
		CultureName: "en-GB",
		URL:         "en",
		SortOrder:   1,
		Status:      domain.StatusActive,
		Version:     3,
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	cmd := CreateLanguage{SiteID: uuid.New(), ID: uuid.New(), Name: "English", CultureName: "en-GB", URL: "en"}

	l, err := Create(ctx, cmd, allow[CreateLanguage](), 4)
	require.NoError(t, err)

	assert.Equal(t, cmd.ID, l.ID())
	assert.Equal(t, cmd.SiteID, l.SiteID())
	assert.Equal(t, domain.StatusActive, l.Status())
	assert.Equal(t, 4, l.SortOrder())
	assert.Equal(t, int64(0), l.Version())

	events := l.Events()
	require.Len(t, events, 1)
	assert.Equal(t, Created, events[0].Kind)
	assert.Equal(t, AggregateType, events[0].AggregateType)
	assert.Equal(t, "en-GB", events[0].Data["cultureName"])
	assert.Equal(t, int64(1), events[0].Version)

	t.Run("rejected", func(t *testing.T) {
		l, err := Create(ctx, cmd, reject[CreateLanguage](domain.Failure{Field: "Name", Message: "taken"}), 1)
		assert.Nil(t, l)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
	})
}

func TestHide(t *testing.T) {
	ctx := context.Background()
	l := newActive(t)

	require.NoError(t, l.Hide(ctx, HideLanguage{SiteID: l.SiteID(), ID: l.ID()}, allow[HideLanguage]()))

	assert.Equal(t, domain.StatusHidden, l.Status())
	events := l.Events()
	require.Len(t, events, 1)
	assert.Equal(t, Hidden, events[0].Kind)
	assert.Equal(t, l.ID(), events[0].AggregateID)
	assert.Equal(t, l.SiteID(), events[0].SiteID)
	assert.Equal(t, int64(4), events[0].Version)
}

func TestHideTwiceRecordsTwoEvents(t *testing.T) {
	ctx := context.Background()
	l := newActive(t)
	cmd := HideLanguage{SiteID: l.SiteID(), ID: l.ID()}

	require.NoError(t, l.Hide(ctx, cmd, allow[HideLanguage]()))
	require.NoError(t, l.Hide(ctx, cmd, allow[HideLanguage]()))

	assert.Equal(t, domain.StatusHidden, l.Status())
	events := l.Events()
	require.Len(t, events, 2)
	assert.Equal(t, Hidden, events[0].Kind)
	assert.Equal(t, Hidden, events[1].Kind)
}

func TestBehaviorsOnDeletedLanguage(t *testing.T) {
	ctx := context.Background()
	l := newActive(t)
	require.NoError(t, l.Delete(ctx, DeleteLanguage{SiteID: l.SiteID(), ID: l.ID()}, allow[DeleteLanguage]()))

	err := l.Activate(ctx, ActivateLanguage{SiteID: l.SiteID(), ID: l.ID()}, allow[ActivateLanguage]())

	var vf *domain.ValidationFailed
	require.ErrorAs(t, err, &vf)
	assert.True(t, vf.Has("Status"))
	assert.Equal(t, domain.StatusDeleted, l.Status())
	assert.Len(t, l.Events(), 1, "only the Deleted event")
}

func TestBehaviorRejectsForeignCommand(t *testing.T) {
	l := newActive(t)
	err := l.Hide(context.Background(), HideLanguage{SiteID: l.SiteID(), ID: uuid.New()}, allow[HideLanguage]())

	var vf *domain.ValidationFailed
	require.ErrorAs(t, err, &vf)
	assert.True(t, vf.Has("Id"))
	assert.Empty(t, l.Events())
}

func TestValidatorLookupFailure(t *testing.T) {
	l := newActive(t)
	broken := domain.ValidatorFunc[HideLanguage](func(context.Context, HideLanguage) (domain.Failures, error) {
		return nil, errors.New("database is locked")
	})

	err := l.Hide(context.Background(), HideLanguage{SiteID: l.SiteID(), ID: l.ID()}, broken)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, domain.StatusActive, l.Status())
}

func TestUpdateDetails(t *testing.T) {
	l := newActive(t)
	cmd := UpdateLanguageDetails{SiteID: l.SiteID(), ID: l.ID(), Name: "British English", CultureName: "en-GB", URL: "uk"}

	require.NoError(t, l.UpdateDetails(context.Background(), cmd, allow[UpdateLanguageDetails]()))
	assert.Equal(t, "British English", l.Name())
	assert.Equal(t, "uk", l.URL())
	require.Len(t, l.Events(), 1)
	assert.Equal(t, DetailsUpdated, l.Events()[0].Kind)
}

func TestMoveTo(t *testing.T) {
	l := newActive(t)
	assert.False(t, l.moveTo(1))
	assert.Empty(t, l.Events())

	assert.True(t, l.moveTo(3))
	assert.Equal(t, 3, l.SortOrder())
	require.Len(t, l.Events(), 1)
	assert.Equal(t, Reordered, l.Events()[0].Kind)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	l := newActive(t)
	assert.Equal(t, l.Snapshot(), Restore(l.Snapshot()).Snapshot())
}

// A rejected command never changes state and never records an event,
// whatever the failures and whatever the starting status.
func TestRejectedCommandLeavesNoTrace(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		status := rapid.SampledFrom([]domain.Status{domain.StatusActive, domain.StatusHidden, domain.StatusDeleted}).Draw(t, "status")
		failures := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) domain.Failure {
			return domain.Failure{
				Field:   rapid.SampledFrom([]string{"Id", "SiteId", "Name", "Url"}).Draw(t, "field"),
				Message: rapid.StringMatching(`[A-Za-z ]{1,20}`).Draw(t, "message"),
			}
		}), 1, 5).Draw(t, "failures")

		l := Restore(State{SiteID: uuid.New(), ID: uuid.New(), Name: "N", CultureName: "en", URL: "n", SortOrder: 1, Status: status, Version: 7})
		before := l.Snapshot()

		var err error
		switch rapid.IntRange(0, 3).Draw(t, "behavior") {
		case 0:
			err = l.Hide(ctx, HideLanguage{SiteID: l.SiteID(), ID: l.ID()}, reject[HideLanguage](failures...))
		case 1:
			err = l.Activate(ctx, ActivateLanguage{SiteID: l.SiteID(), ID: l.ID()}, reject[ActivateLanguage](failures...))
		case 2:
			err = l.Delete(ctx, DeleteLanguage{SiteID: l.SiteID(), ID: l.ID()}, reject[DeleteLanguage](failures...))
		case 3:
			err = l.UpdateDetails(ctx, UpdateLanguageDetails{SiteID: l.SiteID(), ID: l.ID(), Name: "X", CultureName: "fr", URL: "x"}, reject[UpdateLanguageDetails](failures...))
		}

		var vf *domain.ValidationFailed
		if !errors.As(err, &vf) {
			t.Fatalf("expected ValidationFailed, got %v", err)
		}
		if len(vf.Failures) != len(failures) {
			t.Fatalf("expected %d failures, got %d", len(failures), len(vf.Failures))
		}
		if l.Snapshot() != before {
			t.Fatalf("state changed: %+v -> %+v", before, l.Snapshot())
		}
		if n := len(l.Events()); n != 0 {
			t.Fatalf("expected no events, got %d", n)
		}
	})
}

// Every accepted behavior records exactly one event.
func TestAcceptedBehaviorRecordsOneEvent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		l := Restore(State{SiteID: uuid.New(), ID: uuid.New(), Name: "N", CultureName: "en", URL: "n", SortOrder: 1, Status: domain.StatusActive})

		steps := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 10).Draw(t, "steps")
		for i, step := range steps {
			var err error
			switch step {
			case 0:
				err = l.Hide(ctx, HideLanguage{SiteID: l.SiteID(), ID: l.ID()}, allow[HideLanguage]())
			case 1:
				err = l.Activate(ctx, ActivateLanguage{SiteID: l.SiteID(), ID: l.ID()}, allow[ActivateLanguage]())
			case 2:
				err = l.UpdateDetails(ctx, UpdateLanguageDetails{SiteID: l.SiteID(), ID: l.ID(), Name: "N", CultureName: "en", URL: "n"}, allow[UpdateLanguageDetails]())
			}
			if err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			if got := len(l.Events()); got != i+1 {
				t.Fatalf("after %d behaviors expected %d events, got %d", i+1, i+1, got)
			}
		}
	})
}
