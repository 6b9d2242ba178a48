package templates

import "time"

type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}

func newBase(appName, name, username, email string, opts ...Option) EmailData {
	d := EmailData{Name: name, Username: username, Email: email, AppName: appName}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(appName, name, username, email string, opts ...Option) map[string]any {
	return ToMap(newBase(appName, name, username, email, opts...))
}

func NewPasswordChangedData(appName, name, username, email string, at time.Time, opts ...Option) map[string]any {
	opts = append([]Option{WithTime(at)}, opts...)
	return ToMap(newBase(appName, name, username, email, opts...))
}
