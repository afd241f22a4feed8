// Package action is the closed set of button actions a user can trigger.
// Tokens are decoded once, where updates enter the process.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mur0dDev/Classification-Bot/internal/models"
)

var ErrUnknownToken = errors.New("action: unknown token")

// Action is implemented by every action type of this package.
type Action interface {
	isAction()
}

type (
	// SelectCategory picks the kind of being to classify.
	SelectCategory struct{ Category models.Category }
	// SelectCandidate picks a zero-based entry of the candidate list shown
	// for Field.
	SelectCandidate struct {
		Field string
		Index int
	}
	// Reenter discards the candidate list and asks the question again.
	Reenter struct{}
	// Answer replies to the yes/no question of Field.
	Answer struct {
		Field string
		Yes   bool
	}
	ShowEditMenu struct{}
	EditField    struct{ Field string }
	DoneEditing  struct{}
	Submit       struct{}
	Cancel       struct{}
)

func (SelectCategory) isAction()  {}
func (SelectCandidate) isAction() {}
func (Reenter) isAction()         {}
func (Answer) isAction()          {}
func (ShowEditMenu) isAction()    {}
func (EditField) isAction()       {}
func (DoneEditing) isAction()     {}
func (Submit) isAction()          {}
func (Cancel) isAction()          {}

const (
	prefixCategory  = "cat:"
	prefixCandidate = "pick:"
	prefixEdit      = "edit:"
	prefixYes       = "yes:"
	prefixNo        = "no:"

	tokenReenter  = "reenter"
	tokenEditMenu = "edit"
	tokenDone     = "done"
	tokenSubmit   = "submit"
	tokenCancel   = "close"
)

// MaxTokenLen is the longest token a transport has to carry.
const MaxTokenLen = 64

// Encode renders a as a callback token.
func Encode(a Action) string {
	switch a := a.(type) {
	case SelectCategory:
		return prefixCategory + string(a.Category)
	case SelectCandidate:
		return prefixCandidate + a.Field + ":" + strconv.Itoa(a.Index)
	case Reenter:
		return tokenReenter
	case Answer:
		if a.Yes {
			return prefixYes + a.Field
		}
		return prefixNo + a.Field
	case ShowEditMenu:
		return tokenEditMenu
	case EditField:
		return prefixEdit + a.Field
	case DoneEditing:
		return tokenDone
	case Submit:
		return tokenSubmit
	case Cancel:
		return tokenCancel
	}
	panic(fmt.Sprintf("action: cannot encode %T", a))
}

// Decode parses a callback token.
func Decode(token string) (Action, error) {
	switch token {
	case tokenReenter:
		return Reenter{}, nil
	case tokenEditMenu:
		return ShowEditMenu{}, nil
	case tokenDone:
		return DoneEditing{}, nil
	case tokenSubmit:
		return Submit{}, nil
	case tokenCancel:
		return Cancel{}, nil
	}

	switch {
	case strings.HasPrefix(token, prefixCategory):
		c, ok := models.ParseCategory(strings.TrimPrefix(token, prefixCategory))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
		return SelectCategory{Category: c}, nil
	case strings.HasPrefix(token, prefixCandidate):
		field, index, ok := strings.Cut(strings.TrimPrefix(token, prefixCandidate), ":")
		i, err := strconv.Atoi(index)
		if !ok || field == "" || err != nil || i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
		return SelectCandidate{Field: field, Index: i}, nil
	case strings.HasPrefix(token, prefixYes), strings.HasPrefix(token, prefixNo):
		yes := strings.HasPrefix(token, prefixYes)
		field := strings.TrimPrefix(token, prefixNo)
		if yes {
			field = strings.TrimPrefix(token, prefixYes)
		}
		if field == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
		return Answer{Field: field, Yes: yes}, nil
	case strings.HasPrefix(token, prefixEdit):
		field := strings.TrimPrefix(token, prefixEdit)
		if field == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
		return EditField{Field: field}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
}

// Name is a short label for logs.
func Name(a Action) string {
	if a == nil {
		return "none"
	}
	return Encode(a)
}
