package stubapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"neurofleet-console/internal/models"
	"neurofleet-console/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var emailFormat = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.(com|org|net|in)$`)

type contextKey string

const claimsContextKey contextKey = "claims"

// Claims is what the backend signs into a token.
type Claims struct {
	UserID string
	Email  string
	RoleID int
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   *int   `json:"roleId"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Token   string `json:"token"`
	RoleID  int    `json:"roleId"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
}

// validateAccount collects every problem as one comma-separated message.
func validateAccount(email, password string, roleID *int, passwordMin int) string {
	var errs []string
	if strings.TrimSpace(email) == "" {
		errs = append(errs, "Email is required")
	} else if !emailFormat.MatchString(email) {
		errs = append(errs, "Invalid email format")
	}
	if password == "" {
		errs = append(errs, "Password is required")
	} else if len(password) < passwordMin {
		errs = append(errs, "Password must be at least 8 characters")
	}
	if roleID == nil {
		errs = append(errs, "Please select a role")
	} else if *roleID < 1 || *roleID > 4 {
		errs = append(errs, "Invalid role selected")
	}
	return strings.Join(errs, ", ")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	log.Printf("🔐 Login attempt for: %s", req.Email)

	if msg := validateAccount(req.Email, req.Password, req.RoleID, 0); msg != "" {
		utils.Error(w, http.StatusBadRequest, msg)
		return
	}

	user, ok := s.userByEmail(req.Email)
	if !ok {
		log.Printf("❌ User not found: %s", req.Email)
		utils.Error(w, http.StatusBadRequest, "User not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Printf("❌ Invalid password for: %s", req.Email)
		utils.Error(w, http.StatusBadRequest, "Incorrect password")
		return
	}
	if user.RoleID != *req.RoleID {
		log.Printf("❌ Role mismatch for: %s (has %d, asked %d)", req.Email, user.RoleID, *req.RoleID)
		utils.Error(w, http.StatusBadRequest, "Invalid role for this user")
		return
	}

	token, err := s.IssueToken(user, s.tokenTTL)
	if err != nil {
		log.Println("❌ Failed to create token")
		utils.Error(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	log.Printf("✅ Login successful: %s (role %d)", user.Email, user.RoleID)
	utils.JSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		Status:  "success",
		Token:   token,
		RoleID:  user.RoleID,
		UserID:  user.ID,
		Name:    user.Name,
	})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   *int   `json:"roleId"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg := validateAccount(req.Email, req.Password, req.RoleID, 8)
	if strings.TrimSpace(req.Username) == "" {
		msg = strings.TrimPrefix(msg+", Username is required", ", ")
	}
	if msg != "" {
		utils.Error(w, http.StatusBadRequest, msg)
		return
	}

	if _, exists := s.userByEmail(req.Email); exists {
		utils.Error(w, http.StatusBadRequest, "User already exists. Please login.")
		return
	}
	if _, err := s.AddUser(req.Email, req.Password, req.Username, *req.RoleID); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("✅ Registered: %s (role %d)", req.Email, *req.RoleID)
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Registered successfully", "status": "success"})
}

// IssueToken signs an HS256 token for u valid for ttl (negative ttl yields
// an already expired token).
func (s *Server) IssueToken(u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role_id": u.RoleID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// Auth rejects requests without a valid, unexpired bearer token with 401.
func (s *Server) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Printf("❌ Missing or malformed authorization header: %s %s", r.Method, r.URL.Path)
			utils.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			log.Printf("❌ Invalid token: %v", err)
			utils.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		mc, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		userID, _ := mc["user_id"].(string)
		email, _ := mc["email"].(string)
		roleID, _ := mc["role_id"].(float64)
		if userID == "" || email == "" {
			utils.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims := Claims{UserID: userID, Email: email, RoleID: int(roleID)}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after Auth. The backend answers a wrong role with
// 403, unlike the console's guards.
func (s *Server) RequireRole(roleID int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFrom(r)
			if !ok {
				utils.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if claims.RoleID != roleID {
				log.Printf("❌ Insufficient permissions: required %d, got %d", roleID, claims.RoleID)
				utils.Error(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFrom(r *http.Request) (Claims, bool) {
	c, ok := r.Context().Value(claimsContextKey).(Claims)
	return c, ok
}

func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Pong ✅"))
}
