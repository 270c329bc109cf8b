// Package validation checks request bodies before handlers touch the
// database. Each ValidateX function returns a field→message map; an empty
// map means the input is acceptable.
package validation

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	imagePattern  = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg)$`)
	scriptPattern = regexp.MustCompile(`(?i)<script.*?>.*?</script>`)
	specialChars  = `!@#$%^&*(),.?":{}|<>`
)

// RegisterInput is the payload of POST /api/auth/register.
type RegisterInput struct {
	Pseudo   string `json:"pseudo"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
	Avatar   string `json:"avatar"`
}

// LoginInput is the payload of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChallengeInput is the payload of POST /api/challenges.
type ChallengeInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rules       string `json:"rules"`
	GameID      int64  `json:"game_id"`
}

// EntryInput is the payload of POST/PATCH entry routes.
type EntryInput struct {
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
}

// ValidateRegister enforces pseudo 1-50 chars, a well-formed email, a strong
// password (12-100 chars with lower/upper/digit/special) and an avatar that
// is either empty or a URL pointing at an image file.
func ValidateRegister(in RegisterInput) map[string]string {
	errs := map[string]string{}
	if l := len(strings.TrimSpace(in.Pseudo)); l < 1 || l > 50 {
		errs["pseudo"] = "pseudo must be between 1 and 50 characters"
	}
	if !emailPattern.MatchString(in.Email) {
		errs["email"] = "invalid email address"
	}
	if msg := passwordError(in.Password); msg != "" {
		errs["password"] = msg
	}
	if msg := avatarError(strings.TrimSpace(in.Avatar)); msg != "" {
		errs["avatar"] = msg
	}
	return errs
}

// ValidateLogin only checks shape; credential checking is the handler's job.
func ValidateLogin(in LoginInput) map[string]string {
	errs := map[string]string{}
	if !emailPattern.MatchString(in.Email) {
		errs["email"] = "invalid email address"
	}
	if in.Password == "" {
		errs["password"] = "password is required"
	}
	return errs
}

// ValidateChallenge enforces minimum lengths and rejects embedded script tags.
func ValidateChallenge(in ChallengeInput) map[string]string {
	errs := map[string]string{}
	if len(strings.TrimSpace(in.Title)) < 3 {
		errs["title"] = "title must be at least 3 characters"
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		errs["description"] = "description must be at least 10 characters"
	} else if scriptPattern.MatchString(in.Description) {
		errs["description"] = "description must not contain script tags"
	}
	if len(strings.TrimSpace(in.Rules)) < 10 {
		errs["rules"] = "rules must be at least 10 characters"
	} else if scriptPattern.MatchString(in.Rules) {
		errs["rules"] = "rules must not contain script tags"
	}
	if in.GameID < 1 {
		errs["game_id"] = "game_id is required"
	}
	return errs
}

// ValidateEntry enforces the entry title length and a valid video URL.
func ValidateEntry(in EntryInput) map[string]string {
	errs := map[string]string{}
	if len(strings.TrimSpace(in.Title)) < 5 {
		errs["title"] = "title must be at least 5 characters"
	} else if scriptPattern.MatchString(in.Title) {
		errs["title"] = "title must not contain script tags"
	}
	u, err := url.Parse(in.VideoURL)
	if err != nil || u.Scheme == "" || u.Host == "" || scriptPattern.MatchString(in.VideoURL) {
		errs["video_url"] = "video_url must be a valid URL"
	}
	return errs
}

func passwordError(password string) string {
	if len(password) < 12 || len(password) > 100 {
		return "password must be between 12 and 100 characters"
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	switch {
	case !lower:
		return "password must contain at least one lowercase letter"
	case !upper:
		return "password must contain at least one uppercase letter"
	case !digit:
		return "password must contain at least one digit"
	case !special:
		return "password must contain at least one special character"
	}
	return ""
}

func avatarError(avatar string) string {
	if avatar == "" {
		return ""
	}
	u, err := url.Parse(avatar)
	if err != nil || u.Scheme == "" || u.Host == "" || !imagePattern.MatchString(u.Path) {
		return "avatar must be empty or a URL pointing to an image"
	}
	return ""
}
