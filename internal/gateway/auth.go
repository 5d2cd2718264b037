package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"neurofleet-console/internal/session"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 8

// FieldErrors maps form fields to a short message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string { return "Missing Parameters" }

// Credentials is what the login form submits.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   int    `json:"roleId"`
}

// Validate trims the input and reports every invalid field.
func (c *Credentials) Validate() error {
	c.Email = strings.TrimSpace(c.Email)
	c.Password = strings.TrimSpace(c.Password)

	errs := FieldErrors{}
	if c.Email == "" {
		errs["email"] = "Email Required"
	} else if !emailPattern.MatchString(c.Email) {
		errs["email"] = "Invalid Email"
	}
	if c.Password == "" {
		errs["password"] = "Password Required"
	} else if len(c.Password) < minPasswordLength {
		errs["password"] = "Min 8 Characters"
	}
	if c.RoleID == 0 {
		errs["role"] = "Role Required"
	} else if c.RoleID < 1 || c.RoleID > 4 {
		errs["role"] = "Invalid Role"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LoginResult is the backend's login payload.
type LoginResult struct {
	Token   string          `json:"token"`
	RoleID  json.Number     `json:"roleId"`
	UserID  json.RawMessage `json:"userId"`
	Name    string          `json:"name,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Login authenticates and, on success, writes the new session. Nothing is
// written when validation or the backend call fails.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var res LoginResult
	if _, err := c.Post(ctx, "/login", creds, &res); err != nil {
		return nil, err
	}
	if res.Token == "" || res.RoleID == "" {
		return nil, fmt.Errorf("login response is missing token or roleId")
	}

	userName := res.Name
	if userName == "" {
		userName = "User"
	}
	sess := session.Session{
		Token:    res.Token,
		RoleID:   res.RoleID.String(),
		UserID:   rawID(res.UserID),
		Email:    creds.Email,
		UserName: userName,
	}
	if err := session.Create(c.store, sess); err != nil {
		return nil, err
	}
	return &res, nil
}

// rawID renders a JSON id that may be a number or a string.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

// Registration is what the sign-up form submits.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   int    `json:"roleId"`
}

func (r *Registration) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	errs := FieldErrors{}
	if r.Username == "" {
		errs["username"] = "Username Required"
	}
	creds := Credentials{Email: r.Email, Password: r.Password, RoleID: r.RoleID}
	if err := creds.Validate(); err != nil {
		for k, v := range err.(FieldErrors) {
			errs[k] = v
		}
	}
	r.Email, r.Password = creds.Email, creds.Password

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Register creates an account. It never touches the session.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	if err := reg.Validate(); err != nil {
		return "", err
	}
	var res struct {
		Message string `json:"message"`
	}
	if _, err := c.Post(ctx, "/register", reg, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// Logout wipes the whole session.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// Profile is the signed-in user's profile.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    int    `json:"role"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if _, err := c.Get(ctx, "/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, p Profile) error {
	_, err := c.Put(ctx, "/profile", p, nil)
	return err
}

// Ping checks the backend answers; it returns the raw reply text.
func (c *Client) Ping(ctx context.Context) (string, error) {
	res, err := c.Get(ctx, "/ping", nil)
	if err != nil {
		return "", err
	}
	return string(res.Data), nil
}
