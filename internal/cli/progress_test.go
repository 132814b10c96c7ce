package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-conductor/internal/config"
	"quiz-conductor/internal/domain"
)

func TestPrintProgress(t *testing.T) {
	color.NoColor = true
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	err := printProgress(&buf, domain.Progress{
		QuizID: "abc123",
		Topic:  "Rivers",
		ActiveNow: []domain.ActiveStudent{
			{StudentUsername: "bob", StartedAt: now, TimeLeftSeconds: 42},
			{StudentUsername: "carl", StartedAt: now, Overdue: true},
		},
		Completed:   []domain.Result{{StudentUsername: "amy", Score: 3, TotalQuestions: 4, SubmittedAt: now}},
		GeneratedAt: now,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Rivers (abc123)")
	assert.Contains(t, out, "42s")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "3/4")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"start", "migrate", "progress"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestPrintProgressKeepsColumnsAlignedWithColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, printProgress(&buf, domain.Progress{
		QuizID: "abc123",
		ActiveNow: []domain.ActiveStudent{
			{StudentUsername: "bob", StartedAt: now, TimeLeftSeconds: 42},
			{StudentUsername: "carolina", StartedAt: now, Overdue: true},
		},
		GeneratedAt: now,
	}))

	lines := strings.Split(buf.String(), "\n")
	col := -1
	for _, line := range lines {
		if strings.HasPrefix(line, "STUDENT") && strings.Contains(line, "STARTED") {
			col = strings.Index(line, "STARTED")
			break
		}
	}
	require.NotEqual(t, -1, col)
	for _, name := range []string{"bob", "carolina"} {
		found := false
		for _, line := range lines {
			if strings.HasPrefix(line, name+" ") {
				assert.Equal(t, col, strings.Index(line, "10:00AM"), "row %q", line)
				found = true
			}
		}
		assert.True(t, found, name)
	}
}

func TestProgressNeedsPostgres(t *testing.T) {
	cfg := config.Default()
	assert.ErrorIs(t, requireQuizStore(cfg), errNoQuizStore)

	cfg.Redis.Addr = "localhost:6379"
	assert.ErrorIs(t, requireQuizStore(cfg), errNoQuizStore)

	cfg.Postgres.URL = "postgres://quiz@localhost/quizdb"
	assert.NoError(t, requireQuizStore(cfg))
}
