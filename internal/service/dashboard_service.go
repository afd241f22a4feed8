package service

import (
	"context"
	"time"

	"github.com/Mur0dDev/Classification-Bot/internal/events"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/session"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
)

// RowCounter reads destination table sizes.
type RowCounter interface {
	RowCount(ctx context.Context, table string) (int, error)
}

type TableStats struct {
	Category models.Category `json:"category"`
	Table    string          `json:"table"`
	Rows     int             `json:"rows"`
	Error    string          `json:"error,omitempty"`
}

type Dashboard struct {
	ActiveSessions int                  `json:"activeSessions"`
	ByState        map[string]int       `json:"byState"`
	ByCategory     map[string]int       `json:"byCategory"`
	Tables         []TableStats         `json:"tables"`
	Recent         []submission.Outcome `json:"recent"`
	Subscribers    int                  `json:"subscribers"`
	DroppedEvents  uint64               `json:"droppedEvents"`
	GeneratedAt    string               `json:"generatedAt"`
}

// SessionView is a session as the admin API shows it.
type SessionView struct {
	UserID           int64             `json:"userId"`
	UserName         string            `json:"userName"`
	Category         models.Category   `json:"category,omitempty"`
	State            string            `json:"state"`
	Fields           map[string]string `json:"fields"`
	Candidates       []string          `json:"candidates,omitempty"`
	Submitting       bool              `json:"submitting,omitempty"`
	OrphanBroadcasts int               `json:"orphanBroadcasts,omitempty"`
	UpdatedAt        string            `json:"updatedAt"`
}

type DashboardService struct {
	sessions session.Store
	flows    *flow.Registry
	rows     RowCounter
	hub      *events.Hub
}

func NewDashboardService(sessions session.Store, flows *flow.Registry, rows RowCounter, hub *events.Hub) *DashboardService {
	return &DashboardService{sessions: sessions, flows: flows, rows: rows, hub: hub}
}

func (s *DashboardService) Dashboard(ctx context.Context) *Dashboard {
	d := &Dashboard{
		ByState:     map[string]int{},
		ByCategory:  map[string]int{},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, sess := range s.sessions.Snapshot() {
		d.ActiveSessions++
		d.ByState[sess.State()]++
		if sess.Category != "" {
			d.ByCategory[string(sess.Category)]++
		}
	}
	for _, f := range s.flows.Flows() {
		ts := TableStats{Category: f.Category, Table: f.Table}
		n, err := s.rows.RowCount(ctx, f.Table)
		if err != nil {
			ts.Error = err.Error()
		} else {
			ts.Rows = n
		}
		d.Tables = append(d.Tables, ts)
	}
	d.Recent = s.hub.Recent()
	d.Subscribers, d.DroppedEvents = s.hub.Stats()
	return d
}

func (s *DashboardService) Sessions() []SessionView {
	snap := s.sessions.Snapshot()
	out := make([]SessionView, 0, len(snap))
	for _, sess := range snap {
		out = append(out, SessionView{
			UserID:           sess.UserID,
			UserName:         sess.UserName,
			Category:         sess.Category,
			State:            sess.State(),
			Fields:           sess.Fields,
			Candidates:       sess.PendingCandidates,
			Submitting:       sess.Submitting,
			OrphanBroadcasts: sess.OrphanBroadcasts,
			UpdatedAt:        sess.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func (s *DashboardService) Flows() []*flow.Flow {
	return s.flows.Flows()
}

// Subscribe follows live submission outcomes.
func (s *DashboardService) Subscribe() (<-chan submission.Outcome, func()) {
	return s.hub.Subscribe()
}
