package model

import (
	"strings"
	"time"
)

// GroupKind distinguishes data groups from request groups
type GroupKind string

const (
	GroupKindData    GroupKind = "data"
	GroupKindRequest GroupKind = "request"
)

// Default groups available to every student
var (
	DefaultDataGroups    = []string{"Academics", "Portfolio", "Personal"}
	DefaultRequestGroups = []string{"College", "Recruiters"}
)

// Group name limits
const (
	GroupNameMinLen = 2
	GroupNameMaxLen = 64
)

// Group is a per-student named category, either a default or a custom entry
type Group struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"studentId"`
	Name           string     `json:"name"`
	NormalizedName string     `json:"-"`
	IsCustom       bool       `json:"isCustom"`
	MemberCount    *int       `json:"memberCount,omitempty"`
	CreatedAt      *time.Time `json:"createdAt"`
}

// NormalizeGroupName returns the uniqueness key for a group name
func NormalizeGroupName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DefaultGroupID returns the stable id of a default group
func DefaultGroupID(name string) string {
	return "default:" + NormalizeGroupName(name)
}

// Defaults returns the default group names for the kind
func (k GroupKind) Defaults() []string {
	if k == GroupKindRequest {
		return DefaultRequestGroups
	}
	return DefaultDataGroups
}

// CanonicalDefault returns the default group matching name case-insensitively
func (k GroupKind) CanonicalDefault(name string) (string, bool) {
	normalized := NormalizeGroupName(name)
	for _, g := range k.Defaults() {
		if strings.ToLower(g) == normalized {
			return g, true
		}
	}
	return "", false
}

// NewDefaultGroup builds the virtual record of a default group
func NewDefaultGroup(studentID, name string) *Group {
	return &Group{
		ID:             DefaultGroupID(name),
		StudentID:      studentID,
		Name:           name,
		NormalizedName: NormalizeGroupName(name),
		IsCustom:       false,
	}
}
