package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestHourSlot(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"top of hour unchanged", time.Date(2031, 1, 10, 14, 0, 0, 0, time.UTC), time.Date(2031, 1, 10, 14, 0, 0, 0, time.UTC)},
		{"minutes dropped", time.Date(2031, 1, 10, 14, 59, 59, 999, time.UTC), time.Date(2031, 1, 10, 14, 0, 0, 0, time.UTC)},
		{"other zone normalized to UTC", time.Date(2031, 1, 10, 9, 30, 0, 0, est), time.Date(2031, 1, 10, 14, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(HourSlot(tt.in)))
		})
	}
}

func TestMeetup_HasStarted(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, (&Meetup{StartTime: now}).HasStarted(now), "start equal to now counts as started")
	assert.True(t, (&Meetup{StartTime: now.Add(-time.Minute)}).HasStarted(now))
	assert.False(t, (&Meetup{StartTime: now.Add(time.Nanosecond)}).HasStarted(now))
}

func TestCreateMeetupCommand_Validate(t *testing.T) {
	valid := CreateMeetupCommand{
		OrganizerID:  "0190c1c4-6d4e-7000-8000-000000000001",
		Title:        "Go night",
		Description:  "Talks",
		Location:     "Lisbon",
		StartTime:    time.Date(2031, 1, 10, 14, 0, 0, 0, time.UTC),
		AttachmentID: "0190c1c4-6d4e-7000-8000-0000000000f1",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *CreateMeetupCommand)
	}{
		{"missing title", func(c *CreateMeetupCommand) { c.Title = "  " }},
		{"missing description", func(c *CreateMeetupCommand) { c.Description = "" }},
		{"missing location", func(c *CreateMeetupCommand) { c.Location = "" }},
		{"missing start", func(c *CreateMeetupCommand) { c.StartTime = time.Time{} }},
		{"missing attachment", func(c *CreateMeetupCommand) { c.AttachmentID = "" }},
		{"malformed attachment", func(c *CreateMeetupCommand) { c.AttachmentID = "42" }},
		{"missing organizer", func(c *CreateMeetupCommand) { c.OrganizerID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := valid
			tt.mutate(&cmd)
			err := cmd.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestMeetupPatch_ValidateAndApply(t *testing.T) {
	assert.NoError(t, MeetupPatch{}.Validate())
	assert.True(t, MeetupPatch{}.IsEmpty())

	err := MeetupPatch{Title: strPtr("")}.Validate()
	assert.True(t, errors.Is(err, ErrValidation))
	err = MeetupPatch{AttachmentID: strPtr("nope")}.Validate()
	assert.True(t, errors.Is(err, ErrValidation))

	start := time.Date(2031, 2, 1, 10, 0, 0, 0, time.UTC)
	m := &Meetup{Title: "old", Description: "desc", Location: "here", AttachmentID: "a"}
	MeetupPatch{Title: strPtr("new"), StartTime: &start}.Apply(m)
	assert.Equal(t, "new", m.Title)
	assert.Equal(t, "desc", m.Description, "absent fields are left untouched")
	assert.Equal(t, "here", m.Location)
	assert.Equal(t, "a", m.AttachmentID)
	assert.True(t, start.Equal(m.StartTime))
}

func TestNormalizeID(t *testing.T) {
	const canonical = "0190c1c4-6d4e-7000-8000-00000000000a"
	for _, raw := range []string{
		canonical,
		"0190C1C4-6D4E-7000-8000-00000000000A",
		"{0190c1c4-6d4e-7000-8000-00000000000a}",
		"0190c1c46d4e7000800000000000000a",
	} {
		assert.Equal(t, canonical, NormalizeID(raw), raw)
	}
	assert.Equal(t, "not-a-uuid", NormalizeID("not-a-uuid"))
}

func TestStoredInstant(t *testing.T) {
	in := time.Date(2031, 1, 10, 16, 59, 59, 999999600, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, time.Date(2031, 1, 10, 14, 59, 59, 999999000, time.UTC), StoredInstant(in))
}

func TestMeetupFilter_DayBounds(t *testing.T) {
	_, _, ok := MeetupFilter{}.DayBounds()
	assert.False(t, ok)

	d := time.Date(2031, 1, 10, 17, 45, 0, 0, time.UTC)
	start, end, ok := MeetupFilter{Date: &d}.DayBounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2031, 1, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2031, 1, 11, 0, 0, 0, 0, time.UTC), end)
}

func TestPaginationParams(t *testing.T) {
	p := PaginationParams{}.Normalized(10)
	assert.Equal(t, PaginationParams{Page: 1, PageSize: 10}, p)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 20, PaginationParams{Page: 3, PageSize: 10}.Offset())
}

func TestUser_Address(t *testing.T) {
	assert.Equal(t, "Ada <ada@example.com>", (&User{Name: "Ada", Email: "ada@example.com"}).Address())
	assert.Equal(t, "ada@example.com", (&User{Email: "ada@example.com"}).Address())
}
