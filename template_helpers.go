package guard

import (
	"maps"
	"slices"

	"github.com/gofiber/fiber/v2"
)

// TemplateUserKey is the template variable holding the current user
var TemplateUserKey = "current_user"

// TemplateHelpers returns functions and constants for django templates.
//
// In templates:
//
//	{% if is_authenticated(current_user) %}
//	{% if has_role(current_user, "admin", "security") %}
//	<a href="{{ landing_path(current_user) }}">Home</a>
func TemplateHelpers() map[string]any {
	routes := DefaultRoutes()

	return map[string]any{
		"is_authenticated": isAuthenticated,
		"has_role":         hasRole,
		"landing_path": func(user any) string {
			if path, ok := routes.Landing(toUser(user).RoleTag()); ok {
				return path
			}
			return ""
		},
		"roles": map[string]string{
			"student":  string(RoleStudent),
			"admin":    string(RoleAdmin),
			"security": string(RoleSecurity),
		},
	}
}

// TemplateHelpersWithUser returns the helpers with user set as current_user
func TemplateHelpersWithUser(user *User) map[string]any {
	helpers := TemplateHelpers()
	if user != nil {
		helpers[TemplateUserKey] = user
	}
	return helpers
}

// TemplateData merges the helpers and the user stored by a guard into data
func (g *FiberGuard) TemplateData(c *fiber.Ctx, data fiber.Map) fiber.Map {
	user, _ := g.CurrentUser(c)
	out := fiber.Map(TemplateHelpersWithUser(user))
	maps.Copy(out, data)
	return out
}

func toUser(v any) *User {
	switch u := v.(type) {
	case *User:
		return u
	case User:
		return &u
	default:
		return nil
	}
}

func isAuthenticated(user any) bool {
	u := toUser(user)
	return u != nil && u.ID != ""
}

// hasRole matches the raw role exactly, like the protected guard does
func hasRole(user any, roles ...string) bool {
	u := toUser(user)
	if u == nil || u.Role == "" {
		return false
	}
	return slices.Contains(roles, u.Role)
}
