package service

import (
	"errors"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// ErrNotYourGroup is returned when a mentor writes to another mentor's group.
var ErrNotYourGroup = errors.New("group belongs to another mentor")

// Scope limits what a caller can see. The zero value sees everything.
type Scope struct {
	// MentorID restricts reads to the mentor's own groups.
	MentorID *int64
	// StudentID restricts reads to the student's own records.
	StudentID *int64
}

// ScopeFor derives the read scope of an authenticated caller.
func ScopeFor(c *Claims) Scope {
	if c == nil {
		return Scope{}
	}
	id := c.UserID
	switch {
	case c.TokenType == TokenTypeStudent:
		return Scope{StudentID: &id}
	case c.IsMentor():
		return Scope{MentorID: &id}
	default:
		return Scope{}
	}
}

// AllowsGroup reports whether g is visible in the scope.
func (s Scope) AllowsGroup(g *model.Group) bool {
	if s.MentorID != nil {
		return g.MentorID != nil && *g.MentorID == *s.MentorID
	}
	return true
}

// AllowsInvoice reports whether inv is visible in the scope.
func (s Scope) AllowsInvoice(inv *model.Invoice) bool {
	if s.StudentID != nil && inv.StudentID != *s.StudentID {
		return false
	}
	if s.MentorID != nil {
		return inv.MentorID != nil && *inv.MentorID == *s.MentorID
	}
	return true
}
