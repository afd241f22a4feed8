package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

func flowOf(t *testing.T, c models.Category) *flow.Flow {
	t.Helper()
	reg, err := flow.Default(vocab.Default())
	require.NoError(t, err)
	f, ok := reg.Flow(c)
	require.True(t, ok)
	return f
}

func TestSummaryOmitsBranchFill(t *testing.T) {
	alien := flowOf(t, models.CategoryAlien)
	fields := map[string]string{
		"humanoid": "No", "race": "None", "skin_color": "None",
		"dangerous": "None", "has_reason": "None", "weight": "None",
	}
	got := Summary(alien, fields)
	assert.Equal(t, "📋 *Alien Classification Summary*\n\n🛸 *Humanoid*: No\n", got)
}

func TestSummaryShowsEveryAnsweredField(t *testing.T) {
	human := flowOf(t, models.CategoryHuman)
	fields := map[string]string{
		"gender": "Male", "age": "45", "nationality": "Uzbekistan", "education": "Higher",
		"eye_color": "Green", "hair_color": "Blue", "height": "180",
	}
	got := Summary(human, fields)
	assert.Contains(t, got, "*Gender*: Male")
	assert.Contains(t, got, "*Age*: 45 years")
	assert.Contains(t, got, "*Height*: 180 cm")
	assert.Len(t, Visible(human, fields), 7)
}

func TestReportLabelsEveryField(t *testing.T) {
	alien := flowOf(t, models.CategoryAlien)
	rec := models.Record{
		Ordinal:   3,
		ID:        "1733054400",
		Category:  models.CategoryAlien,
		Fields:    map[string]string{"humanoid": "No", "race": "None", "skin_color": "None", "dangerous": "None", "has_reason": "None", "weight": "None"},
		Submitter: "snake_case *name*",
		CreatedAt: time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC),
	}
	got := Report(alien, rec)
	assert.Contains(t, got, "Alien Classification Report")
	assert.Contains(t, got, "*Race*: None")
	assert.Contains(t, got, "*Weight*: None")
	assert.Contains(t, got, "*No.*: 3")
	assert.Contains(t, got, `snake\_case \*name\*`)
	assert.Contains(t, got, "2024-12-01")
}

func TestCandidatesNumbered(t *testing.T) {
	got := Candidates([]string{"Green", "Grey"})
	assert.Contains(t, got, "1. Green\n2. Grey\n")
}
