package handlers

import (
	"net/http"
	"net/url"

	"neurofleet-console/internal/access"
	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/models"
	"neurofleet-console/internal/session"
	"neurofleet-console/pkg/utils"
)

type dashboardUser struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// DashboardView is what every dashboard returns: who is looking and what
// the backend reported for their role.
type DashboardView struct {
	User     dashboardUser           `json:"user"`
	Summary  models.DashboardSummary `json:"summary"`
	Bookings []models.Booking        `json:"bookings,omitempty"`
	Trips    []models.Trip           `json:"trips,omitempty"`
}

// Dashboard serves one role's dashboard. The route guard has already
// admitted the role; this only displays what the backend returns.
func Dashboard(api *gateway.Client, role access.Role) http.HandlerFunc {
	backendPath := access.HomeFor(role)

	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		sess := session.Load(store)
		client := api.WithStore(store)

		view := DashboardView{User: dashboardUser{
			UserID: sess.UserID,
			Name:   sess.UserName,
			Email:  sess.Email,
			Role:   role.String(),
		}}
		if _, err := client.Get(r.Context(), backendPath, &view.Summary); err != nil {
			respondError(w, r, err)
			return
		}

		userPath := url.PathEscape(sess.UserID)
		switch role {
		case access.Customer:
			view.Bookings = []models.Booking{}
			if _, err := client.Get(r.Context(), "/bookings/user/"+userPath, &view.Bookings); err != nil {
				respondError(w, r, err)
				return
			}
		case access.Driver:
			view.Trips = []models.Trip{}
			if _, err := client.Get(r.Context(), "/driver/trips/history/"+userPath, &view.Trips); err != nil {
				respondError(w, r, err)
				return
			}
		}

		utils.JSON(w, http.StatusOK, view)
	}
}
