package admin

import (
	"github.com/loganlanou/course-admin/internal/content"
	"github.com/loganlanou/course-admin/views/helpers"
)

// LoginForm is the state of the sign-in form.
type LoginForm struct {
	Email     string
	Redirect  string
	Error     string
	CSRFToken string
}

// Stat is one dashboard tile. Failed tiles show a dash instead of a count.
type Stat struct {
	Label  string
	Href   string
	Count  int
	Failed bool
}

// ProfileForm is the state of the account settings form.
type ProfileForm struct {
	Name      string
	Email     string
	Phone     string
	Avatar    string
	Problems  map[string][]string
	Error     string
	CSRFToken string
}

type profileField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Problems []string
}

// fields lists the inputs in display order. Passwords are never echoed back.
func (f ProfileForm) fields() []profileField {
	return []profileField{
		{Name: "name", Label: "Name", Type: "text", Value: f.Name, Problems: f.Problems["name"]},
		{Name: "email", Label: "Email", Type: "email", Value: f.Email, Problems: f.Problems["email"]},
		{Name: "phone", Label: "Phone", Type: "tel", Value: f.Phone, Problems: f.Problems["phone"]},
		{Name: "avatar", Label: "Avatar URL", Type: "url", Value: f.Avatar, Problems: f.Problems["avatar"]},
		{Name: "password", Label: "New password", Type: "password", Problems: f.Problems["password"]},
		{Name: "password_confirmation", Label: "Confirm new password", Type: "password"},
	}
}

// ListView is a resource table.
type ListView struct {
	Resource  content.Resource
	Records   []content.Record
	Total     int
	Error     string
	CSRFToken string
}

func (v ListView) base() string {
	return "/dashboard/" + v.Resource.Key
}

// FormView is a create or edit form. An empty ID means create.
type FormView struct {
	Resource  content.Resource
	ID        string
	Values    content.Record
	Problems  map[string]string
	Error     string
	CSRFToken string
}

func fieldID(f content.Field) string {
	return "field-" + f.Name
}

func inputType(kind content.FieldKind) string {
	switch kind {
	case content.KindNumber:
		return "number"
	case content.KindURL:
		return "url"
	}
	return "text"
}

func cell(rec content.Record, col content.Column) string {
	switch col.Kind {
	case content.ColBool:
		return helpers.FormatBool(rec.Bool(col.Field))
	case content.ColTime:
		return helpers.FormatRelative(rec.String(col.Field))
	}
	if s := rec.String(col.Field); s != "" {
		return s
	}
	return "—"
}
