package repositories

import (
	"context"
	"fmt"
	"strings"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserFilter narrows user listings. Nil slices do not filter.
type UserFilter struct {
	Role      models.Role
	CreatedBy []uuid.UUID
	// IDs are always included alongside the CreatedBy match.
	IDs    []uuid.UUID
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error
	UpdatePermissions(ctx context.Context, id uuid.UUID, perms models.EmployeePermissions) error
	PromoteSeeker(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter) ([]*models.User, error)
	ListEmployeeIDs(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error)
	CountCreated(ctx context.Context, creatorID uuid.UUID) (int, error)
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, created_by, parent_user,
		permissions, must_change_password, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Phone,
		&user.Role, &user.CreatedBy, &user.ParentUser, &user.Permissions, &user.MustChangePassword,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, created_by, parent_user,
			permissions, must_change_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Phone, user.Role, user.CreatedBy, user.ParentUser, user.Permissions, user.MustChangePassword)
	return translate(err)
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, updated_at = NOW()
		WHERE id = $4
	`
	tag, err := r.db.Exec(ctx, query, user.FirstName, user.LastName, user.Phone, user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error {
	query := `UPDATE users SET password_hash = $1, must_change_password = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, hash, mustChange, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdatePermissions(ctx context.Context, id uuid.UUID, perms models.EmployeePermissions) error {
	query := `UPDATE users SET permissions = $1, updated_at = NOW() WHERE id = $2 AND role = 'employee'`
	tag, err := r.db.Exec(ctx, query, perms, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteSeeker flips a seeker to tenant. It reports false when the user was not a seeker.
func (r *userRepo) PromoteSeeker(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE users SET role = 'tenant', updated_at = NOW() WHERE id = $1 AND role = 'seeker'`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.CreatedBy != nil || filter.IDs != nil {
		var scope []string
		if filter.CreatedBy != nil {
			args = append(args, filter.CreatedBy)
			scope = append(scope, fmt.Sprintf("created_by = ANY($%d)", len(args)))
		}
		if filter.IDs != nil {
			args = append(args, filter.IDs)
			scope = append(scope, fmt.Sprintf("id = ANY($%d)", len(args)))
		}
		conds = append(conds, "("+strings.Join(scope, " OR ")+")")
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListEmployeeIDs walks one level of the createdBy adjacency for employee accounts.
func (r *userRepo) ListEmployeeIDs(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT id FROM users WHERE created_by = $1 AND role = 'employee' ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *userRepo) CountCreated(ctx context.Context, creatorID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE created_by = $1 OR parent_user = $1`, creatorID).Scan(&count)
	return count, err
}
