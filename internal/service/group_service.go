package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/model"
)

// MemberCounter считает активных участников групп запросов
type MemberCounter interface {
	CountActiveByGroup(ctx context.Context, studentID string) (map[string]int, error)
}

// GroupService управляет группами одного вида
type GroupService struct {
	kind    model.GroupKind
	groups  GroupStore
	members MemberCounter
	logger  *zap.Logger
}

// NewGroupService создаёт сервис; members нужен только для групп запросов
func NewGroupService(kind model.GroupKind, groups GroupStore, members MemberCounter, logger *zap.Logger) *GroupService {
	return &GroupService{
		kind:    kind,
		groups:  groups,
		members: members,
		logger:  logger.With(zap.String("group_kind", string(kind))),
	}
}

// List возвращает группы по умолчанию, затем пользовательские
func (s *GroupService) List(ctx context.Context, studentID string) ([]*model.Group, error) {
	if err := model.ValidateKeyComponent("studentId", studentID); err != nil {
		return nil, err
	}

	custom, err := s.groups.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	defaults := s.kind.Defaults()
	out := make([]*model.Group, 0, len(defaults)+len(custom))
	for _, name := range defaults {
		out = append(out, model.NewDefaultGroup(studentID, name))
	}
	out = append(out, custom...)

	if s.kind == model.GroupKindRequest && s.members != nil {
		counts, err := s.members.CountActiveByGroup(ctx, studentID)
		if err != nil {
			return nil, fmt.Errorf("count members: %w", err)
		}
		for _, g := range out {
			n := counts[g.NormalizedName]
			g.MemberCount = &n
		}
	}

	return out, nil
}

// Create создаёт пользовательскую группу; повторный вызов возвращает ту же группу
func (s *GroupService) Create(ctx context.Context, studentID, name string) (*model.Group, error) {
	if err := model.ValidateKeyComponent("studentId", studentID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateGroupName(name); err != nil {
		return nil, err
	}

	if canonical, ok := s.kind.CanonicalDefault(name); ok {
		return model.NewDefaultGroup(studentID, canonical), nil
	}

	g, err := s.groups.Upsert(ctx, &model.Group{
		StudentID:      studentID,
		Name:           name,
		NormalizedName: model.NormalizeGroupName(name),
		IsCustom:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.logger.Info("Group saved",
		zap.String("student_id", studentID),
		zap.String("group_id", g.ID),
		zap.String("name", g.Name))
	return g, nil
}

// Resolve возвращает каноническое имя группы студента
func (s *GroupService) Resolve(ctx context.Context, studentID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: group name required", apperr.ErrValidation)
	}
	if canonical, ok := s.kind.CanonicalDefault(name); ok {
		return canonical, nil
	}

	g, err := s.groups.GetByNormalizedName(ctx, studentID, model.NormalizeGroupName(name))
	if err != nil {
		return "", fmt.Errorf("resolve group: %w", err)
	}
	if g == nil {
		return "", fmt.Errorf("%w: %s group %q", apperr.ErrNotFound, s.kind, name)
	}
	return g.Name, nil
}

func validateGroupName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < model.GroupNameMinLen || n > model.GroupNameMaxLen {
		return fmt.Errorf("%w: group name must be %d..%d characters", apperr.ErrValidation, model.GroupNameMinLen, model.GroupNameMaxLen)
	}
	return model.ValidateKeyComponent("name", name)
}
