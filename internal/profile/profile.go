//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=mock_directory.go -package=profile
package profile

import "context"

type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Directory resolves presentation info for users. Unknown users are simply
// absent from the result.
type Directory interface {
	Lookup(ctx context.Context, userIDs []string) (map[string]Profile, error)
}

// Fallback returns the profile to show when the directory has nothing.
func Fallback(userID string) Profile {
	return Profile{UserID: userID, DisplayName: userID}
}

// StaticDirectory is used when no user database is configured.
type StaticDirectory struct{}

func (StaticDirectory) Lookup(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	return map[string]Profile{}, nil
}
