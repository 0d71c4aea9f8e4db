package service

import (
	"errors"

	"go-pos-kasir/internal/apperr"
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
	"go-pos-kasir/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	// DeleteUser requires the acting admin's id explicitly; there is no
	// ambient "current user" anywhere in the service layer.
	DeleteUser(userID, actorID uuid.UUID) error
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name"`
	RoleID   uint   `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Username string  `json:"username" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName string  `json:"full_name"`
	RoleID   uint    `json:"role_id" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

func (s *userService) CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Check duplicates
	if existing, _ := s.userRepo.FindByUsername(req.Username); existing != nil {
		return nil, apperr.Conflictf("Username already exists")
	}
	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, apperr.Conflictf("Email already exists")
	}

	// 3. Validate role exists
	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, apperr.NotFoundf("Role %d not found", req.RoleID)
	}

	// 4. Create user with the role's privilege set
	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &req.RoleID,
		IsActive: true,
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to hash password", err)
	}
	user.Privileges = role.Privileges

	if err := s.userRepo.Create(user); err != nil {
		return nil, classify(err, "Failed to create user")
	}
	return user, nil
}

func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("User %s not found", userID)
		}
		return nil, classify(err, "Failed to update user")
	}

	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, apperr.NotFoundf("Role %d not found", req.RoleID)
	}

	user.Username = req.Username
	user.Email = req.Email
	user.FullName = req.FullName
	user.RoleID = &req.RoleID
	user.UpdatedBy = updaterID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Failed to hash password", err)
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, classify(err, "Failed to update user")
	}

	// Re-sync privileges with the (possibly new) role
	if err := s.userRepo.UpdatePrivileges(user.ID, role.Privileges); err != nil {
		return nil, classify(err, "Failed to update user privileges")
	}
	return s.userRepo.FindByID(user.ID)
}

func (s *userService) DeleteUser(userID, actorID uuid.UUID) error {
	if userID == actorID {
		return apperr.New(apperr.KindValidation, "Cannot delete your own account")
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("User %s not found", userID)
		}
		return classify(err, "Failed to delete user")
	}

	if err := s.userRepo.Delete(userID); err != nil {
		return classify(err, "Failed to delete user")
	}
	return nil
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, classify(err, "Failed to retrieve users")
	}
	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("User %s not found", id)
		}
		return nil, classify(err, "Failed to retrieve user")
	}
	resp := user.ToResponse()
	return &resp, nil
}
