package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tes/crm/internal/auth"
	"tes/crm/internal/config"
	"tes/crm/internal/db"
	"tes/crm/internal/models"
)

// ErrInvalidCredentials is returned for a failed login. It deliberately
// does not distinguish unknown email from wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// IUserService defines the interface for portal account operations.
type IUserService interface {
	CreateUser(ctx context.Context, name, email, password string, role models.UserRole, phone string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, role *models.UserRole) ([]models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, string, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	EnsureSeedAdmin(ctx context.Context) error
}

// userService implements IUserService.
type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: db, cfg: cfg}
}

// CreateUser inserts a portal account with a bcrypt-hashed password.
func (s *userService) CreateUser(ctx context.Context, name, email, password string, role models.UserRole, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "email", Reason: "a valid email address is required"}
	}
	if len(password) < 8 {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if role != models.RoleAdmin && role != models.RoleAgent {
		return nil, &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        phone,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	insert := func() error {
		_, insertErr := s.db.Collection(usersCollection).InsertOne(ctx, user)
		return insertErr
	}
	if err := db.Try(insert); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, &ValidationError{Field: "email", Reason: "already in use"}
		}
		return nil, fmt.Errorf("failed to insert user %s: %w", email, err)
	}
	return user, nil
}

// FindByID finds a user by ID.
func (s *userService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user %s: %w", id.Hex(), err)
	}
	return &user, nil
}

// FindByEmail finds a user by normalized email.
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).
		Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	return &user, nil
}

// ListUsers returns accounts, optionally filtered by role, by name.
func (s *userService) ListUsers(ctx context.Context, role *models.UserRole) ([]models.User, error) {
	query := bson.M{}
	if role != nil {
		query["role"] = *role
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(usersCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	return users, nil
}

// Authenticate checks credentials and returns the user with a signed JWT.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !user.Active {
		return nil, "", ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(user, s.cfg.JwtSecret, s.cfg.JwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Deactivate disables an account. Tokens already issued expire on their
// own; deactivation only blocks new logins.
func (s *userService) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error deactivating user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureSeedAdmin creates the initial admin account when the users
// collection has none, using ADMIN_EMAIL/ADMIN_PASSWORD if set.
func (s *userService) EnsureSeedAdmin(ctx context.Context) error {
	count, err := s.db.Collection(usersCollection).CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return fmt.Errorf("error counting admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(envOr("ADMIN_EMAIL", "admin@example.com")))
	password := envOr("ADMIN_PASSWORD", "")
	if password == "" {
		log.Printf("No admin account exists and ADMIN_PASSWORD is not set; skipping admin seed.")
		return nil
	}

	_, err = s.CreateUser(ctx, "Administrator", email, password, models.RoleAdmin, "")
	if err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	log.Printf("Seeded initial admin account %s", email)
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
