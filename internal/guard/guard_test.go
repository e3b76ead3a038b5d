package guard

import "testing"

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		rawQuery string
		authed   bool
		want     Decision
	}{
		{"unauthenticated chat page", "/chat", "", false, ToLogin},
		{"unauthenticated chat subpage", "/chat/abc123", "", false, ToLogin},
		{"unauthenticated root", "/", "", false, ToLogin},
		{"authenticated login page", "/login", "", true, ToChat},
		{"authenticated signup page", "/signup", "", true, ToChat},
		{"authenticated sign-in page", "/sign-in", "", true, ToChat},
		{"authenticated root", "/", "", true, ToChat},
		{"authenticated chat page", "/chat", "", true, Pass},
		{"unauthenticated login page", "/login", "", false, Pass},
		{"auth endpoint unauthenticated", "/api/auth/google/callback", "code=x&state=y", false, Pass},
		{"auth endpoint authenticated", "/api/auth/session", "", true, Pass},
		{"error marker passes", "/login", "error=OAuthCallback", true, Pass},
		{"unrelated api path", "/api/chat/history", "", false, Pass},
		{"unrelated page", "/about", "", false, Pass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.path, tt.rawQuery, tt.authed); got != tt.want {
				t.Errorf("Evaluate(%q, %q, %v) = %v, want %v", tt.path, tt.rawQuery, tt.authed, got, tt.want)
			}
		})
	}
}
