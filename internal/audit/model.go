package audit

import "time"

const (
	ActionRegister    = "register"
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionLogout      = "logout"
)

// Event is one auth-relevant action taken (or attempted) by an actor.
// Actor is the username as presented, so failed logins against unknown
// accounts are recorded too.
type Event struct {
	ID        int64             `json:"id"`
	Actor     string            `json:"actor"`
	Action    string            `json:"action"`
	IP        string            `json:"ip"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
}

type Filter struct {
	Actor  string
	Action string
	Since  time.Time
	Until  time.Time
	Limit  int
}
