package handlers

import (
	"html/template"
	"log"
	"net/http"
)

const layout = `{{define "top"}}<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>NeuroFleet · {{.Title}}</title></head>
<body>
<nav><a href="/">NeuroFleet</a>{{if .SignedIn}} · <a href="{{.Home}}">Dashboard</a> · <a href="/profile">Profile</a>
<form method="post" action="/logout" style="display:inline"><button type="submit">Logout</button></form>{{else}} · <a href="/login">Login</a> · <a href="/register">Register</a>{{end}}</nav>
<main>{{end}}
{{define "bottom"}}</main></body></html>{{end}}`

const homePage = `{{template "top" .}}
<h1>NeuroFleet</h1>
<p>Fleet management for admins, managers, drivers and customers.</p>
{{if .SignedIn}}<p>Welcome back, {{.UserName}}.</p>{{else}}<p><a href="/login">Sign in</a> to continue.</p>{{end}}
{{template "bottom" .}}`

const loginPage = `{{template "top" .}}
<h1>Login</h1>
{{with .Message}}<p class="message">{{.}}</p>{{end}}
{{with .Fields.general}}<p class="error">{{.}}</p>{{end}}
<form method="post" action="/login">
  <label>Email <input type="email" name="email" value="{{.Email}}"></label>
  {{with .Fields.email}}<span class="error">{{.}}</span>{{end}}
  <label>Password <input type="password" name="password"></label>
  {{with .Fields.password}}<span class="error">{{.}}</span>{{end}}
  <label>Role <select name="roleId">
    <option value="">Select role</option>
    {{range .Roles}}<option value="{{.ID}}"{{if eq .ID $.RoleID}} selected{{end}}>{{.Name}}</option>{{end}}
  </select></label>
  {{with .Fields.role}}<span class="error">{{.}}</span>{{end}}
  <button type="submit">Login</button>
</form>
<p>No account? <a href="/register">Register</a></p>
{{template "bottom" .}}`

const registerPage = `{{template "top" .}}
<h1>Register</h1>
{{with .Fields.general}}<p class="error">{{.}}</p>{{end}}
<form method="post" action="/register">
  <label>Username <input type="text" name="username" value="{{.UserName}}"></label>
  {{with .Fields.username}}<span class="error">{{.}}</span>{{end}}
  <label>Email <input type="email" name="email" value="{{.Email}}"></label>
  {{with .Fields.email}}<span class="error">{{.}}</span>{{end}}
  <label>Password <input type="password" name="password"></label>
  {{with .Fields.password}}<span class="error">{{.}}</span>{{end}}
  <label>Role <select name="roleId">
    <option value="">Select role</option>
    {{range .Roles}}<option value="{{.ID}}"{{if eq .ID $.RoleID}} selected{{end}}>{{.Name}}</option>{{end}}
  </select></label>
  {{with .Fields.role}}<span class="error">{{.}}</span>{{end}}
  <button type="submit">Register</button>
</form>
{{template "bottom" .}}`

var pages = map[string]*template.Template{
	"home":     template.Must(template.New("home").Parse(layout + homePage)),
	"login":    template.Must(template.New("login").Parse(layout + loginPage)),
	"register": template.Must(template.New("register").Parse(layout + registerPage)),
}

type roleOption struct {
	ID   int
	Name string
}

var roleOptions = []roleOption{
	{1, "Admin"},
	{2, "Manager"},
	{3, "Driver"},
	{4, "Customer"},
}

// pageView is the data every page template renders.
type pageView struct {
	Title    string
	SignedIn bool
	Home     string
	UserName string
	Email    string
	RoleID   int
	Message  string
	Fields   map[string]string
	Roles    []roleOption
}

func render(w http.ResponseWriter, status int, name string, view pageView) {
	if view.Roles == nil {
		view.Roles = roleOptions
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages[name].Execute(w, view); err != nil {
		log.Printf("❌ Failed to render %s page: %v", name, err)
	}
}
