package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"neurofleet-console/internal/access"
	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/session"
	"neurofleet-console/pkg/utils"
)

// StreamCloser ends the live streams opened under one login session.
type StreamCloser interface {
	DisconnectSession(sessionID, redirect string) int
}

type loginReply struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	RoleID   string `json:"roleId"`
	Name     string `json:"name"`
}

func formRole(v string) int {
	id, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return id
}

func decodeCredentials(r *http.Request) (gateway.Credentials, error) {
	var creds gateway.Credentials
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&creds)
		return creds, err
	}
	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Email = r.PostFormValue("email")
	creds.Password = r.PostFormValue("password")
	creds.RoleID = formRole(r.PostFormValue("roleId"))
	return creds, nil
}

// LoginPage shows the sign-in form. A signed-in user goes straight to their
// dashboard.
func LoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		view := viewFor(store, "Login")
		if view.SignedIn && r.URL.Path == access.LoginPath {
			http.Redirect(w, r, view.Home, http.StatusFound)
			return
		}
		if r.URL.Query().Get("registered") != "" {
			view.Message = "Registered successfully. Please login."
		}
		render(w, http.StatusOK, "login", view)
	}
}

func Login(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}

		creds, err := decodeCredentials(r)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		log.Printf("🔐 Console login attempt for: %s", strings.TrimSpace(creds.Email))

		res, err := api.WithStore(store).Login(r.Context(), creds)
		if err != nil {
			if wantsJSON(r) {
				respondError(w, r, err)
				return
			}
			loginFailed(w, r, creds, err)
			return
		}

		role, _ := access.ParseRole(res.RoleID.String())
		home := access.HomeFor(role)
		log.Printf("✅ Console login successful: %s → %s", strings.TrimSpace(creds.Email), home)

		if wantsJSON(r) {
			name, _ := store.Get(session.KeyUserName)
			utils.JSON(w, http.StatusOK, loginReply{
				Message:  "Login successful",
				Redirect: home,
				RoleID:   res.RoleID.String(),
				Name:     name,
			})
			return
		}
		http.Redirect(w, r, home, http.StatusFound)
	}
}

// loginFailed re-renders the form with what went wrong.
func loginFailed(w http.ResponseWriter, r *http.Request, creds gateway.Credentials, err error) {
	var fields gateway.FieldErrors
	var apiErr *gateway.APIError

	view := pageView{Title: "Login", Email: strings.TrimSpace(creds.Email), RoleID: creds.RoleID}
	switch {
	case errors.As(err, &fields):
		view.Fields = fields
		render(w, http.StatusBadRequest, "login", view)
	case errors.Is(err, gateway.ErrSessionInvalidated):
		respondError(w, r, err)
	case errors.As(err, &apiErr):
		log.Printf("❌ Console login rejected: %s", apiErr.Message())
		view.Fields = map[string]string{"general": apiErr.Message()}
		render(w, apiErr.Response.StatusCode, "login", view)
	default:
		log.Printf("❌ Console login failed: %v", err)
		view.Fields = map[string]string{"general": "Backend unavailable, please try again"}
		render(w, http.StatusBadGateway, "login", view)
	}
}

func RegisterPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		render(w, http.StatusOK, "register", viewFor(store, "Register"))
	}
}

func Register(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}

		var reg gateway.Registration
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
				utils.Error(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				utils.Error(w, http.StatusBadRequest, "Invalid form")
				return
			}
			reg.Username = r.PostFormValue("username")
			reg.Email = r.PostFormValue("email")
			reg.Password = r.PostFormValue("password")
			reg.RoleID = formRole(r.PostFormValue("roleId"))
		}

		msg, err := api.WithStore(store).Register(r.Context(), reg)
		if err != nil {
			var fields gateway.FieldErrors
			var apiErr *gateway.APIError
			if wantsJSON(r) || errors.Is(err, gateway.ErrSessionInvalidated) {
				respondError(w, r, err)
				return
			}
			view := pageView{Title: "Register", UserName: reg.Username, Email: strings.TrimSpace(reg.Email), RoleID: reg.RoleID}
			switch {
			case errors.As(err, &fields):
				view.Fields = fields
				render(w, http.StatusBadRequest, "register", view)
			case errors.As(err, &apiErr):
				view.Fields = map[string]string{"general": apiErr.Message()}
				render(w, apiErr.Response.StatusCode, "register", view)
			default:
				log.Printf("❌ Console registration failed: %v", err)
				view.Fields = map[string]string{"general": "Backend unavailable, please try again"}
				render(w, http.StatusBadGateway, "register", view)
			}
			return
		}

		log.Printf("✅ Registered %s via console", strings.TrimSpace(reg.Email))
		if wantsJSON(r) {
			utils.JSON(w, http.StatusOK, map[string]string{"message": msg, "redirect": access.LoginPath})
			return
		}
		http.Redirect(w, r, access.LoginPath+"?registered=1", http.StatusFound)
	}
}

// Logout wipes the session and closes the streams it opened. Other
// sessions of the same user keep theirs. streams may be nil.
func Logout(api *gateway.Client, streams StreamCloser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}

		userID, _ := store.Get(session.KeyUserID)
		sessionID := session.ID(store)
		if err := api.WithStore(store).Logout(); err != nil {
			log.Printf("❌ Failed to clear session on logout: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to logout")
			return
		}
		if streams != nil {
			streams.DisconnectSession(sessionID, access.LoginPath)
		}
		log.Printf("👋 Logged out user %q", userID)

		if wantsJSON(r) {
			utils.JSON(w, http.StatusOK, map[string]string{"message": "Logged out", "redirect": access.LoginPath})
			return
		}
		http.Redirect(w, r, access.LoginPath, http.StatusFound)
	}
}
