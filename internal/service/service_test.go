package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mur0dDev/Classification-Bot/internal/auth"
	"github.com/Mur0dDev/Classification-Bot/internal/events"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/session"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

type counts map[string]int

func (c counts) RowCount(ctx context.Context, table string) (int, error) {
	n, ok := c[table]
	if !ok {
		return 0, errors.New("no such sheet")
	}
	return n, nil
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	svc := NewAuthService("admin", hash, "jwt", time.Hour)

	res, err := svc.Login("admin", "s3cret")
	require.NoError(t, err)
	claims, err := auth.ValidateToken("jwt", res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	_, err = svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("root", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	_, err := NewAuthService("admin", "", "jwt", time.Hour).Login("admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDashboard(t *testing.T) {
	reg, err := flow.Default(vocab.Default())
	require.NoError(t, err)
	store := session.NewMemoryStore(0, nil)
	now := time.Now()

	a := models.NewSession(models.User{ID: 1}, now)
	b := models.NewSession(models.User{ID: 2}, now)
	b.Category, b.Step = models.CategoryHuman, "nationality"
	b.Confirming, b.PendingCandidates = true, []string{"Uzbekistan"}
	store.Put(a)
	store.Put(b)

	hub := events.NewHub(0)
	hub.Observe(submission.Outcome{Ordinal: 3, Stage: submission.StageDone})

	svc := NewDashboardService(store, reg, counts{"Humans": 4, "Animals": 1}, hub)
	d := svc.Dashboard(context.Background())

	assert.Equal(t, 2, d.ActiveSessions)
	assert.Equal(t, 1, d.ByState["nationality-confirm"])
	assert.Equal(t, 1, d.ByState[models.StepChooseCategory])
	assert.Equal(t, 1, d.ByCategory["human"])
	require.Len(t, d.Tables, 3)
	assert.Equal(t, 4, d.Tables[0].Rows)
	assert.NotEmpty(t, d.Tables[2].Error)
	assert.Len(t, d.Recent, 1)

	views := svc.Sessions()
	require.Len(t, views, 2)
	assert.Equal(t, []string{"Uzbekistan"}, views[1].Candidates)
}
