package flow

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Default(vocab.Default())
	require.NoError(t, err)
	return reg
}

func TestDefaultFlows(t *testing.T) {
	reg := defaultRegistry(t)

	human, ok := reg.Flow(models.CategoryHuman)
	require.True(t, ok)
	assert.Equal(t, []string{"gender", "age", "nationality", "education", "eye_color", "hair_color", "height"}, human.Columns())
	assert.Equal(t, "Humans", human.Table)

	animal, ok := reg.Flow(models.CategoryAnimal)
	require.True(t, ok)
	assert.Equal(t, []string{"species", "mammal", "predator", "color", "weight", "age"}, animal.Columns())

	alien, ok := reg.Flow(models.CategoryAlien)
	require.True(t, ok)
	assert.Len(t, alien.Columns(), 6)

	nat, _ := human.Step("nationality")
	assert.NotEmpty(t, nat.Entries)
}

func TestHeaderLayout(t *testing.T) {
	alien, _ := defaultRegistry(t).Flow(models.CategoryAlien)
	assert.Equal(t, []string{
		"No.", "Unique Bot Data #", "Initiator Name",
		"Humanoid", "Race", "Skin Color", "Dangerous", "Has Reason", "Weight",
		"Date",
	}, alien.Header())
}

func TestAlienHumanoidBranch(t *testing.T) {
	alien, _ := defaultRegistry(t).Flow(models.CategoryAlien)
	humanoid, _ := alien.Step("humanoid")

	next, branch := humanoid.Successor(No)
	assert.Equal(t, models.StepReview, next)
	require.NotNil(t, branch)
	assert.Equal(t, "None", branch.Fill)

	next, branch = humanoid.Successor(Yes)
	assert.Equal(t, "race", next)
	assert.Nil(t, branch)

	assert.Len(t, alien.After("humanoid"), 5)
}

func TestAcceptNumber(t *testing.T) {
	animal, _ := defaultRegistry(t).Flow(models.CategoryAnimal)
	age, _ := animal.Step("age")

	for _, in := range []string{"-5", "501", "abc", "4.5", ""} {
		_, err := age.Accept(in)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "input %q", in)
		assert.Equal(t, "age", verr.Field)
		assert.Contains(t, verr.Expected, "0 to 500")
	}

	got, err := age.Accept(" 007 ")
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	got, err = age.Accept("500")
	require.NoError(t, err)
	assert.Equal(t, "500", got)
}

func TestAcceptChoiceNormalizesCase(t *testing.T) {
	alien, _ := defaultRegistry(t).Flow(models.CategoryAlien)
	race, _ := alien.Step("race")

	got, err := race.Accept("y")
	require.NoError(t, err)
	assert.Equal(t, "Y", got)

	_, err = race.Accept("Q")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid race: expected one of X, Y, Z", verr.Error())
}

func TestCellAndDisplay(t *testing.T) {
	human, _ := defaultRegistry(t).Flow(models.CategoryHuman)
	height, _ := human.Step("height")
	assert.Equal(t, 180, height.Cell("180"))
	assert.Equal(t, "None", height.Cell("None"))
	assert.Equal(t, "180 cm", height.Display("180"))

	gender, _ := human.Step("gender")
	assert.Equal(t, "Male", gender.Cell("Male"))
}

func TestContains(t *testing.T) {
	reg := defaultRegistry(t)
	assert.True(t, reg.Contains(models.CategoryHuman, "gender"))
	assert.True(t, reg.Contains(models.CategoryHuman, models.StepReview))
	assert.True(t, reg.Contains("", models.StepChooseCategory))
	assert.False(t, reg.Contains(models.CategoryHuman, "species"))
	assert.False(t, reg.Contains("", "gender"))
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"backward next": `
categories:
  - category: animal
    title: Animal
    table: Animals
    steps:
      - {field: a, label: A, prompt: a?, kind: yesno, next: b}
      - {field: b, label: B, prompt: b?, kind: yesno, next: a}
`,
		"unknown vocabulary": `
categories:
  - category: animal
    title: Animal
    table: Animals
    steps:
      - {field: a, label: A, prompt: a?, kind: fuzzy, vocabulary: planets, next: review}
`,
		"unreachable": `
categories:
  - category: animal
    title: Animal
    table: Animals
    steps:
      - {field: a, label: A, prompt: a?, kind: yesno, next: review}
      - {field: b, label: B, prompt: b?, kind: yesno, next: review}
`,
		"bad range": `
categories:
  - category: animal
    title: Animal
    table: Animals
    steps:
      - {field: a, label: A, prompt: a?, kind: number, min: 5, max: 1, next: review}
`,
		"reserved field": `
categories:
  - category: animal
    title: Animal
    table: Animals
    steps:
      - {field: review, label: A, prompt: a?, kind: yesno, next: review}
`,
		"colon in field": `
categories:
  - category: animal
    title: Animal
    table: Animals
    steps:
      - {field: "a:b", label: A, prompt: a?, kind: yesno, next: review}
`,
		"unknown category": `
categories:
  - category: robot
    title: Robot
    table: Robots
    steps:
      - {field: a, label: A, prompt: a?, kind: yesno, next: review}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc), vocab.Default())
			assert.Error(t, err)
		})
	}
}
