package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"match-service/internal/models"
	"match-service/internal/repositories"
)

const (
	maxGroupNameRunes = 80
	maxGroupBioRunes  = 1000
)

// GroupService creates and reads group profiles.
type GroupService struct {
	groups repositories.GroupRepository
}

func NewGroupService(groups repositories.GroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

// CreateGroup creates a group administered by userID. A user administers at most one group.
func (s *GroupService) CreateGroup(ctx context.Context, userID, name, bio, photoURL string) (models.Group, error) {
	const op = "groups.CreateGroup"
	name = strings.TrimSpace(name)
	bio = strings.TrimSpace(bio)
	photoURL = strings.TrimSpace(photoURL)

	switch {
	case userID == "":
		return models.Group{}, invalid(op, "user id is required")
	case name == "":
		return models.Group{}, invalid(op, "group name is required")
	case utf8.RuneCountInString(name) > maxGroupNameRunes:
		return models.Group{}, invalid(op, "group name is too long")
	case utf8.RuneCountInString(bio) > maxGroupBioRunes:
		return models.Group{}, invalid(op, "group bio is too long")
	}
	if photoURL == "" {
		photoURL = models.DefaultGroupPhotoURL
	}

	group, err := s.groups.CreateGroupForUser(ctx, models.Group{
		Name:        name,
		Bio:         bio,
		PhotoURL:    photoURL,
		AdminUserID: userID,
	})
	if err != nil {
		return models.Group{}, storeError(op, err)
	}
	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	const op = "groups.GetGroup"
	if groupID == "" {
		return models.Group{}, invalid(op, "group id is required")
	}
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, storeError(op, err)
	}
	return group, nil
}
