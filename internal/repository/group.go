package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/BaiBeiCha/smart-planner-bot/internal/database"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

type GroupRepository struct {
	db *database.DB
}

func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts the group together with its creator as the first
// admin member, in one transaction.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO groups (name, description, creator_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, is_active`,
		group.Name, group.Description, group.CreatorID,
	).Scan(&group.ID, &group.CreatedAt, &group.IsActive)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, is_admin) VALUES ($1, $2, TRUE)`,
		group.ID, group.CreatorID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID int64) (*models.Group, error) {
	group := &models.Group{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, description, creator_id, created_at, is_active
		 FROM groups WHERE id = $1`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatorID, &group.CreatedAt, &group.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// GetByUserID returns every active group the user is a member of.
func (r *GroupRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Group, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT g.id, g.name, g.description, g.creator_id, g.created_at, g.is_active
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1 AND g.is_active = TRUE
		 ORDER BY g.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatorID,
			&group.CreatedAt, &group.IsActive); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *GroupRepository) GetMember(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	member := &models.GroupMember{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, group_id, user_id, joined_at, is_admin
		 FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	).Scan(&member.ID, &member.GroupID, &member.UserID, &member.JoinedAt, &member.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *GroupRepository) GetMembers(ctx context.Context, groupID int64) ([]*models.GroupMember, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, group_id, user_id, joined_at, is_admin
		 FROM group_members WHERE group_id = $1
		 ORDER BY joined_at ASC`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		member := &models.GroupMember{}
		if err := rows.Scan(&member.ID, &member.GroupID, &member.UserID, &member.JoinedAt,
			&member.IsAdmin); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int64, isAdmin bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, is_admin) VALUES ($1, $2, $3)`,
		groupID, userID, isAdmin,
	)
	return err
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	return err
}

// Delete removes the group; memberships go with it via ON DELETE CASCADE.
func (r *GroupRepository) Delete(ctx context.Context, groupID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM groups WHERE id = $1`,
		groupID,
	)
	return err
}
