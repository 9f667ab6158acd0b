// Package auth is a demonstration session plugin. Each Auth instance holds at
// most one logged-in user; passwords are not checked.
package auth

import (
	"context"

	"github.com/nom-cli/plugin-sdk/application/plugin"
	"github.com/nom-cli/plugin-sdk/domain/entities"
)

const (
	// Name is the module name of the auth plugin.
	Name = "auth"

	// Class is the instance class exported by the plugin.
	Class = "Auth"

	// GuestRole is reported when nobody is logged in.
	GuestRole = "guest"
)

// User is one known account.
type User struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

// Config is the Auth constructor config.
type Config struct {
	// Users replaces the built-in accounts when set.
	Users []User `json:"users,omitempty" validate:"omitempty,dive"`
}

// DefaultUsers are the accounts known when no config is given.
func DefaultUsers() []User {
	return []User{
		{Username: "admin", Role: "admin", Token: "admin-token"},
		{Username: "user", Role: "user", Token: "user-token"},
	}
}

type session struct {
	current *User
	users   []User
}

func newSession(_ context.Context, cfg Config) (*session, error) {
	users := cfg.Users
	if len(users) == 0 {
		users = DefaultUsers()
	}
	return &session{users: users}, nil
}

func (s *session) find(username string) (User, bool) {
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

// New returns the auth plugin definition.
func New() *plugin.Definition {
	def := plugin.DefinePlugin(plugin.PluginDef{
		Name:        Name,
		Version:     "0.1.0",
		Description: "Demo authentication sessions",
		Author:      "Nom",
	})

	plugin.RegisterClass(def, Class, "Creates a logged-out session", newSession).
		Method(plugin.Op{
			Name:        "login",
			Description: "Logs a user in; the password is not checked",
			Params:      []entities.ValueKind{entities.KindText, entities.KindText},
			Result:      entities.KindEnvelope,
			Mutates:     true,
		}, login).
		Method(plugin.Op{
			Name:        "verify_token",
			Description: "Reports whether token belongs to the logged-in user",
			Params:      []entities.ValueKind{entities.KindText},
			Result:      entities.KindBoolean,
		}, verifyToken).
		Method(plugin.Op{
			Name:        "get_user_role",
			Description: "Returns the role of the logged-in user, or guest",
			Result:      entities.KindText,
		}, userRole).
		Method(plugin.Op{
			Name:        "logout",
			Description: "Ends the session",
			Mutates:     true,
		}, logout)

	return def
}

func login(_ context.Context, s *session, call *plugin.Call) (any, error) {
	u, ok := s.find(call.Args.Text(0))
	if !ok {
		return entities.AuthResult{Success: false, Error: "Invalid credentials"}, nil
	}
	s.current = &u
	return entities.AuthResult{Success: true, Token: u.Token, Role: u.Role}, nil
}

func verifyToken(_ context.Context, s *session, call *plugin.Call) (any, error) {
	return s.current != nil && s.current.Token == call.Args.Text(0), nil
}

func userRole(_ context.Context, s *session, _ *plugin.Call) (any, error) {
	if s.current == nil {
		return GuestRole, nil
	}
	return s.current.Role, nil
}

func logout(_ context.Context, s *session, _ *plugin.Call) (any, error) {
	s.current = nil
	return nil, nil
}
