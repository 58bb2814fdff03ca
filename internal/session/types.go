package session

// Notice kinds, mapped to toast styles in the layout.
const (
	KindError   = "error"
	KindSuccess = "success"
	KindInfo    = "info"
)

// Notice is a transient toast shown on the next rendered page.
type Notice struct {
	Kind    string
	Message string
}

// UserData is the display-only profile mirror kept in the UI cookie. It is
// never used for authorization decisions.
type UserData struct {
	Name      string
	Email     string
	AvatarURL string
}
