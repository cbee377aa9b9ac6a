package service

import (
	"context"
	"strings"
	"time"

	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordHasher turns a plaintext password into its stored digest and checks
// a plaintext against a digest.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(digest, plain string) error
}

// UserService manages accounts. Passwords are digested before every write.
type UserService struct {
	*Resource[model.User]
	hasher PasswordHasher
	now    func() time.Time
}

// NewUserService builds the account service over coll.
func NewUserService(coll document.Collection[model.User], hasher PasswordHasher, log logger.Logger) *UserService {
	return &UserService{
		Resource: NewResource[model.User](coll, log),
		hasher:   hasher,
		now:      time.Now,
	}
}

// Register creates an account with the default role. The role is never taken
// from the client.
func (s *UserService) Register(ctx context.Context, in model.Registration) (*model.User, error) {
	return s.Add(ctx, &model.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
		Role:     string(access.DefaultRole),
	})
}

// Add digests the password before persisting.
func (s *UserService) Add(ctx context.Context, in *model.User) (*model.User, error) {
	digest, err := s.digest(in.Password)
	if err != nil {
		return nil, err
	}
	user := *in
	user.ID = primitive.NilObjectID
	user.Password = digest
	if user.Role == "" {
		user.Role = string(access.DefaultRole)
	}
	if user.TimeCreated.IsZero() {
		user.TimeCreated = s.now().UTC()
	}
	return s.Resource.Add(ctx, &user)
}

// Login returns the account matching email and password. Unknown email and
// wrong password are indistinguishable.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	invalid := apperror.NotFound("Invalid email or password.", nil)

	found, err := s.coll.Find(ctx, document.QueryOptions{
		Filter:     document.Filter{"email": strings.TrimSpace(email)},
		Pagination: document.Pagination{Page: 1, Limit: 1},
	})
	if err != nil {
		return nil, s.translate(ctx, "find", err, "Failed to run query to find user", nil)
	}
	if len(found) == 0 {
		return nil, invalid
	}
	if err := s.hasher.Compare(found[0].Password, password); err != nil {
		return nil, invalid
	}
	return &found[0], nil
}

// Update digests a supplied password before applying updates.
func (s *UserService) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.User, error) {
	if plain, ok := updates["password"].(string); ok {
		digest, err := s.digest(plain)
		if err != nil {
			return nil, err
		}
		updates["password"] = digest
	}
	return s.Resource.Update(ctx, id, updates)
}

// digest rejects passwords the hasher cannot take before hashing.
func (s *UserService) digest(plain string) (string, error) {
	if len(plain) > model.MaxPasswordBytes {
		return "", model.ErrPasswordTooLong
	}
	digest, err := s.hasher.Hash(plain)
	if err != nil {
		return "", apperror.InternalServerError("Failed to digest password", err)
	}
	return digest, nil
}

// UpdateAs applies updates on behalf of subject. Only roles holding
// update:any on users may change a role.
func (s *UserService) UpdateAs(ctx context.Context, subject access.Subject, gate *access.Gate, id string, updates map[string]interface{}) (*model.User, error) {
	if err := gate.AuthorizeOwned(subject, access.UpdateOwn, access.ResourceUsers, id); err != nil {
		return nil, err
	}
	if _, ok := updates["role"]; ok && !gate.Granted(subject.Role, access.UpdateAny, access.ResourceUsers) {
		return nil, apperror.Forbidden("You are not authorized to change the role of this user.")
	}
	return s.Update(ctx, id, updates)
}
