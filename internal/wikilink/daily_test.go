package wikilink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyBody = `Morning notes before anything, see [[Inbox]].
09:00 Standup with [[Team]]
status:: done
area:: work
---
Between entries [[Loose]]
13:30 Lunch reading
Finished [[Deep Work]] chapter
date:: 2025-07-27
17:45 Wrap up`

func TestParseDaily(t *testing.T) {
	entries := ParseDaily(dailyBody)
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, "09:00", first.Timestamp)
	assert.Equal(t, "Standup with [[Team]]", first.Description)
	assert.Equal(t, "done", first.Status)
	assert.Equal(t, "work", first.Area)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, []string{"Team"}, first.Links)
	assert.Equal(t, "09:00 Standup with [[Team]]\nstatus:: done\narea:: work", first.Text)

	second := entries[1]
	assert.Equal(t, "13:30", second.Timestamp)
	assert.Equal(t, "2025-07-27", second.Date)
	assert.Empty(t, second.Status)
	assert.Equal(t, []string{"Deep Work"}, second.Links)

	last := entries[2]
	assert.Equal(t, "Wrap up", last.Description)
	assert.Equal(t, "17:45 Wrap up", last.Text)
	assert.Nil(t, last.Links)
}

func TestParseDaily_NoEntries(t *testing.T) {
	assert.Empty(t, ParseDaily("just text\n9:00 single digit hour"))
	assert.Empty(t, ParseDaily(""))
}

func TestMentions_Daily(t *testing.T) {
	mentions := Mentions(dailyBody, true)
	require.Len(t, mentions, 4)

	assert.Equal(t, "Inbox", mentions[0].Link)
	assert.Nil(t, mentions[0].Context)

	assert.Equal(t, "Team", mentions[1].Link)
	require.NotNil(t, mentions[1].Context)
	assert.Equal(t, "09:00", mentions[1].Context.Timestamp)
	assert.Equal(t, "done", mentions[1].Context.Status)

	assert.Equal(t, "Loose", mentions[2].Link)
	assert.Nil(t, mentions[2].Context)

	assert.Equal(t, "Deep Work", mentions[3].Link)
	require.NotNil(t, mentions[3].Context)
	assert.Equal(t, "13:30", mentions[3].Context.Timestamp)
	assert.Equal(t, "2025-07-27", mentions[3].Context.Date)
	assert.Equal(t, 8, mentions[3].Line)
}

func TestMentions_NotDaily(t *testing.T) {
	mentions := Mentions(dailyBody, false)
	require.Len(t, mentions, 4)
	for _, m := range mentions {
		assert.Nil(t, m.Context, m.Link)
	}
}
