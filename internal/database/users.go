package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Id, &user.Name, &user.Email, &user.CreatedAt); err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, queryGetUserById, userId).
		Scan(&user.Id, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail matches emails case-insensitively.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func getUserByEmail(ctx context.Context, q dbtx, email string) (*models.User, error) {
	var user models.User
	err := q.QueryRowContext(ctx, queryGetUserByEmail, email).
		Scan(&user.Id, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query user: %w", err)
	}
	return &user, nil
}

// CreateUser registers a user together with the wallet and profile rows every user owns.
func (s *Service) CreateUser(ctx context.Context, userId, name, email string) (*models.User, error) {
	user := &models.User{Id: userId, Name: name, Email: email, CreatedAt: time.Now().UTC()}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := getUserByEmail(ctx, tx, email)
		if err == nil {
			return fmt.Errorf("%w: %s", store.ErrDuplicateUser, email)
		}
		if !errors.Is(err, store.ErrUserNotFound) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, queryInsertUser, user.Id, user.Name, user.Email, user.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, queryInsertWallet, user.Id, user.CreatedAt); err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		if _, err := tx.ExecContext(ctx, queryInsertProfile, user.Id); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("User created", zap.String("user_id", user.Id), zap.String("email", user.Email))
	return user, nil
}

func (s *Service) GrantRole(ctx context.Context, userId, role string) error {
	if _, err := s.GetUserById(ctx, userId); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, queryInsertUserRole, userId, role); err != nil {
		return fmt.Errorf("failed to grant role %s: %w", role, err)
	}
	zap.L().Info("Role granted", zap.String("user_id", userId), zap.String("role", role))
	return nil
}

func (s *Service) GetRoles(ctx context.Context, userId string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryGetUserRoles, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer closeRows(rows)

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
